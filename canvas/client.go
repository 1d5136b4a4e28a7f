// Package canvas is a thin client for the Canvas LMS REST API, covering
// the endpoints the assistant's tools need.
package canvas

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultAccountID = int64(1)
	defaultPerPage   = "100"
)

// APIError is a non-2xx response from Canvas.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("canvas: request failed (status %d): %s", e.StatusCode, e.Body)
}

// Client talks to one Canvas instance with one access token.
type Client struct {
	http      *resty.Client
	accountID int64
	asUserID  int64
}

// Option is a functional option for the client.
type Option func(*Client)

// WithAccountID sets the account used for account-scoped endpoints.
func WithAccountID(id int64) Option {
	return func(c *Client) { c.accountID = id }
}

// WithMasquerade makes every request act as the given Canvas user, so
// results reflect that user's permissions and enrollments.
func WithMasquerade(userID int64) Option {
	return func(c *Client) { c.asUserID = userID }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// NewClient creates a Canvas client. baseURL is the instance root, with
// or without the /api/v1 suffix.
func NewClient(baseURL, accessToken string, opts ...Option) *Client {
	baseURL = strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/api/v1")
	httpClient := resty.New().
		SetBaseURL(baseURL+"/api/v1").
		SetHeader("Authorization", "Bearer "+accessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(defaultTimeout)

	c := &Client{http: httpClient, accountID: defaultAccountID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if c.asUserID != 0 {
		r.SetQueryParam("as_user_id", strconv.FormatInt(c.asUserID, 10))
	}
	return r
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("canvas: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// ListCourses lists courses visible to the token, or to the masqueraded
// user when masquerading is on.
func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	var courses []Course
	path := "/courses"
	if c.asUserID != 0 {
		path = fmt.Sprintf("/users/%d/courses", c.asUserID)
	}
	resp, err := c.request(ctx).
		SetQueryParam("per_page", defaultPerPage).
		SetResult(&courses).
		Get(path)
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) GetCourse(ctx context.Context, courseID int64) (*Course, error) {
	var course Course
	resp, err := c.request(ctx).
		SetResult(&course).
		Get(fmt.Sprintf("/courses/%d", courseID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *Client) CreateCourse(ctx context.Context, name, courseCode string) (*Course, error) {
	var course Course
	resp, err := c.request(ctx).
		SetBody(map[string]any{
			"course": map[string]any{"name": name, "course_code": courseCode},
		}).
		SetResult(&course).
		Post(fmt.Sprintf("/accounts/%d/courses", c.accountID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &course, nil
}

// PublishCourse transitions the course to the available workflow state.
func (c *Client) PublishCourse(ctx context.Context, courseID int64) (*Course, error) {
	return c.updateCourse(ctx, courseID, map[string]any{"event": "offer"})
}

func (c *Client) UpdateCourse(ctx context.Context, courseID int64, updates map[string]any) (*Course, error) {
	return c.updateCourse(ctx, courseID, updates)
}

func (c *Client) updateCourse(ctx context.Context, courseID int64, fields map[string]any) (*Course, error) {
	var course Course
	resp, err := c.request(ctx).
		SetBody(map[string]any{"course": fields}).
		SetResult(&course).
		Put(fmt.Sprintf("/courses/%d", courseID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *Client) ListModules(ctx context.Context, courseID int64) ([]Module, error) {
	var modules []Module
	resp, err := c.request(ctx).
		SetQueryParam("per_page", defaultPerPage).
		SetResult(&modules).
		Get(fmt.Sprintf("/courses/%d/modules", courseID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return modules, nil
}

func (c *Client) CreateModule(ctx context.Context, courseID int64, name string) (*Module, error) {
	var module Module
	resp, err := c.request(ctx).
		SetBody(map[string]any{"module": map[string]any{"name": name}}).
		SetResult(&module).
		Post(fmt.Sprintf("/courses/%d/modules", courseID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &module, nil
}

func (c *Client) ListAssignments(ctx context.Context, courseID int64) ([]Assignment, error) {
	var assignments []Assignment
	resp, err := c.request(ctx).
		SetQueryParam("per_page", defaultPerPage).
		SetResult(&assignments).
		Get(fmt.Sprintf("/courses/%d/assignments", courseID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (c *Client) GetAssignment(ctx context.Context, courseID, assignmentID int64) (*Assignment, error) {
	var assignment Assignment
	resp, err := c.request(ctx).
		SetResult(&assignment).
		Get(fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (c *Client) CreateAssignment(ctx context.Context, courseID int64, req CreateAssignmentRequest) (*Assignment, error) {
	var assignment Assignment
	resp, err := c.request(ctx).
		SetBody(map[string]any{"assignment": req}).
		SetResult(&assignment).
		Post(fmt.Sprintf("/courses/%d/assignments", courseID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// GradeSubmission posts a grade (and optional comment) for one user's
// submission.
func (c *Client) GradeSubmission(ctx context.Context, courseID, assignmentID, userID int64, grade, comment string) (*Submission, error) {
	body := map[string]any{
		"submission": map[string]any{"posted_grade": grade},
	}
	if comment != "" {
		body["comment"] = map[string]any{"text_comment": comment}
	}
	var submission Submission
	resp, err := c.request(ctx).
		SetBody(body).
		SetResult(&submission).
		Put(fmt.Sprintf("/courses/%d/assignments/%d/submissions/%d", courseID, assignmentID, userID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &submission, nil
}

func (c *Client) ListSubmissions(ctx context.Context, courseID, assignmentID int64) ([]Submission, error) {
	var submissions []Submission
	resp, err := c.request(ctx).
		SetQueryParam("per_page", defaultPerPage).
		SetResult(&submissions).
		Get(fmt.Sprintf("/courses/%d/assignments/%d/submissions", courseID, assignmentID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	resp, err := c.request(ctx).
		SetQueryParam("per_page", defaultPerPage).
		SetResult(&users).
		Get(fmt.Sprintf("/accounts/%d/users", c.accountID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, name, email, loginID string) (*User, error) {
	var user User
	resp, err := c.request(ctx).
		SetBody(map[string]any{
			"user":           map[string]any{"name": name},
			"pseudonym":      map[string]any{"unique_id": loginID, "send_confirmation": false},
			"communication_channel": map[string]any{"type": "email", "address": email},
		}).
		SetResult(&user).
		Post(fmt.Sprintf("/accounts/%d/users", c.accountID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &user, nil
}

// EnrollUser enrolls a user into a course. role is an assistant role name
// or a raw Canvas enrollment type.
func (c *Client) EnrollUser(ctx context.Context, courseID, userID int64, role string) (*Enrollment, error) {
	enrollType := role
	if !strings.HasSuffix(role, "Enrollment") {
		enrollType = EnrollmentType(role)
	}
	var enrollment Enrollment
	resp, err := c.request(ctx).
		SetBody(map[string]any{
			"enrollment": map[string]any{
				"user_id":          userID,
				"type":             enrollType,
				"enrollment_state": "active",
			},
		}).
		SetResult(&enrollment).
		Post(fmt.Sprintf("/courses/%d/enrollments", courseID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CreateAnnouncement posts an announcement discussion topic.
func (c *Client) CreateAnnouncement(ctx context.Context, courseID int64, title, message string) (*DiscussionTopic, error) {
	var topic DiscussionTopic
	resp, err := c.request(ctx).
		SetBody(map[string]any{
			"title":           title,
			"message":         message,
			"is_announcement": true,
			"published":       true,
		}).
		SetResult(&topic).
		Post(fmt.Sprintf("/courses/%d/discussion_topics", courseID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &topic, nil
}

func (c *Client) ListAnnouncements(ctx context.Context, courseID int64) ([]DiscussionTopic, error) {
	var topics []DiscussionTopic
	resp, err := c.request(ctx).
		SetQueryParams(map[string]string{
			"only_announcements": "true",
			"per_page":           defaultPerPage,
		}).
		SetResult(&topics).
		Get(fmt.Sprintf("/courses/%d/discussion_topics", courseID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return topics, nil
}

func (c *Client) ListFiles(ctx context.Context, courseID int64) ([]File, error) {
	var files []File
	resp, err := c.request(ctx).
		SetQueryParam("per_page", defaultPerPage).
		SetResult(&files).
		Get(fmt.Sprintf("/courses/%d/files", courseID))
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return files, nil
}
