package lmstools

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/classpilot/classpilot"
	"github.com/classpilot/classpilot/canvas"
)

// Service wires the tool catalog to a Canvas instance. The user client
// acts as the conversation's user (masqueraded); the admin client holds
// account-level privileges for user and enrollment management.
type Service struct {
	user  *canvas.Client
	admin *canvas.Client
	log   zerolog.Logger
}

// NewService creates a Service. admin may be nil, in which case the user
// client is used for account-level calls too.
func NewService(user, admin *canvas.Client, log zerolog.Logger) *Service {
	if admin == nil {
		admin = user
	}
	return &Service{user: user, admin: admin, log: log}
}

// RegisterAll installs every tool handler on the executor. Mutating tools
// are restricted by role; the executor enforces this on every call.
func (s *Service) RegisterAll(e *classpilot.Executor) {
	e.Register("list_user_courses", s.listUserCourses)
	e.Register("get_course", s.getCourse)
	e.Register("list_modules", s.listModules)
	e.Register("list_assignments", s.listAssignments)
	e.Register("get_assignment", s.getAssignment)

	staff := []string{classpilot.UserRoleTeacher, classpilot.UserRoleAdmin}
	e.RegisterRestricted("create_course", s.createCourse, staff...)
	e.RegisterRestricted("publish_course", s.publishCourse, staff...)
	e.RegisterRestricted("create_module", s.createModule, staff...)
	e.RegisterRestricted("create_assignment", s.createAssignment, staff...)
	e.RegisterRestricted("grade_assignment", s.gradeAssignment, staff...)
	e.RegisterRestricted("list_submissions", s.listSubmissions, staff...)
	e.RegisterRestricted("create_announcement", s.createAnnouncement, staff...)
	e.RegisterRestricted("list_course_files", s.listCourseFiles, staff...)

	e.RegisterRestricted("enroll_user", s.enrollUser, classpilot.UserRoleAdmin)
	e.RegisterRestricted("list_users", s.listUsers, classpilot.UserRoleAdmin)
	e.RegisterRestricted("create_user", s.createUser, classpilot.UserRoleAdmin)
}

func (s *Service) listUserCourses(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	courses, err := s.user.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]map[string]any, 0, len(courses))
	for _, c := range courses {
		summaries = append(summaries, map[string]any{
			"id":             c.ID,
			"name":           c.Name,
			"course_code":    c.CourseCode,
			"workflow_state": c.WorkflowState,
		})
	}
	return marshal(map[string]any{
		"total_courses": len(courses),
		"courses":       summaries,
	})
}

func (s *Service) getCourse(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	course, err := s.user.GetCourse(ctx, intArg(inv.Args, "course_id"))
	if err != nil {
		return nil, err
	}
	return marshal(course)
}

func (s *Service) createCourse(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	name := gjson.GetBytes(inv.Args, "name").String()
	code := gjson.GetBytes(inv.Args, "course_code").String()
	course, err := s.admin.CreateCourse(ctx, name, code)
	if err != nil {
		return nil, err
	}

	// A teacher creating a course expects to end up teaching it.
	if classpilot.NormalizeRole(inv.Role) == classpilot.UserRoleTeacher && inv.UserID != 0 {
		if _, err := s.admin.EnrollUser(ctx, course.ID, inv.UserID, canvas.TeacherEnrollment); err != nil {
			s.log.Warn().Err(err).
				Int64("course_id", course.ID).
				Int64("user_id", inv.UserID).
				Msg("failed to enroll course creator as teacher")
		}
	}
	return marshal(course)
}

func (s *Service) publishCourse(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	course, err := s.user.PublishCourse(ctx, intArg(inv.Args, "course_id"))
	if err != nil {
		return nil, err
	}
	return marshal(course)
}

func (s *Service) listModules(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	modules, err := s.user.ListModules(ctx, intArg(inv.Args, "course_id"))
	if err != nil {
		return nil, err
	}
	return marshal(map[string]any{
		"total_modules": len(modules),
		"modules":       modules,
	})
}

func (s *Service) createModule(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	courseID := intArg(inv.Args, "course_id")
	module, err := s.user.CreateModule(ctx, courseID, gjson.GetBytes(inv.Args, "name").String())
	if err != nil {
		return nil, err
	}
	return marshal(map[string]any{
		"module_id": module.ID,
		"name":      module.Name,
		"course_id": courseID,
		"position":  module.Position,
	})
}

func (s *Service) listAssignments(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	assignments, err := s.user.ListAssignments(ctx, intArg(inv.Args, "course_id"))
	if err != nil {
		return nil, err
	}
	return marshal(map[string]any{
		"total_assignments": len(assignments),
		"assignments":       assignments,
	})
}

func (s *Service) getAssignment(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	assignment, err := s.user.GetAssignment(ctx,
		intArg(inv.Args, "course_id"), intArg(inv.Args, "assignment_id"))
	if err != nil {
		return nil, err
	}
	return marshal(assignment)
}

func (s *Service) createAssignment(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	courseID := intArg(inv.Args, "course_id")
	req := canvas.CreateAssignmentRequest{
		Name:        gjson.GetBytes(inv.Args, "name").String(),
		Description: gjson.GetBytes(inv.Args, "description").String(),
		DueAt:       gjson.GetBytes(inv.Args, "due_at").String(),
	}
	if pts := gjson.GetBytes(inv.Args, "points_possible"); pts.Exists() {
		v := pts.Float()
		req.PointsPossible = &v
	}
	assignment, err := s.user.CreateAssignment(ctx, courseID, req)
	if err != nil {
		return nil, err
	}
	return marshal(map[string]any{
		"assignment_id":   assignment.ID,
		"name":            assignment.Name,
		"course_id":       courseID,
		"points_possible": assignment.PointsPossible,
		"due_at":          assignment.DueAt,
	})
}

func (s *Service) gradeAssignment(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	grade := gjson.GetBytes(inv.Args, "grade")
	posted := grade.String()
	if grade.Type == gjson.Number {
		posted = strconv.FormatFloat(grade.Float(), 'f', -1, 64)
	}
	submission, err := s.user.GradeSubmission(ctx,
		intArg(inv.Args, "course_id"),
		intArg(inv.Args, "assignment_id"),
		intArg(inv.Args, "user_id"),
		posted,
		gjson.GetBytes(inv.Args, "comment").String())
	if err != nil {
		return nil, err
	}
	return marshal(submission)
}

func (s *Service) listSubmissions(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	submissions, err := s.user.ListSubmissions(ctx,
		intArg(inv.Args, "course_id"), intArg(inv.Args, "assignment_id"))
	if err != nil {
		return nil, err
	}
	return marshal(map[string]any{
		"total_submissions": len(submissions),
		"submissions":       submissions,
	})
}

func (s *Service) enrollUser(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	enrollment, err := s.admin.EnrollUser(ctx,
		intArg(inv.Args, "course_id"),
		intArg(inv.Args, "user_id"),
		gjson.GetBytes(inv.Args, "role").String())
	if err != nil {
		return nil, err
	}
	return marshal(enrollment)
}

func (s *Service) listUsers(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	users, err := s.admin.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return marshal(map[string]any{
		"total_users": len(users),
		"users":       users,
	})
}

func (s *Service) createUser(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	user, err := s.admin.CreateUser(ctx,
		gjson.GetBytes(inv.Args, "name").String(),
		gjson.GetBytes(inv.Args, "email").String(),
		gjson.GetBytes(inv.Args, "login_id").String())
	if err != nil {
		return nil, err
	}
	return marshal(user)
}

func (s *Service) createAnnouncement(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	topic, err := s.user.CreateAnnouncement(ctx,
		intArg(inv.Args, "course_id"),
		gjson.GetBytes(inv.Args, "title").String(),
		gjson.GetBytes(inv.Args, "message").String())
	if err != nil {
		return nil, err
	}
	return marshal(topic)
}

func (s *Service) listCourseFiles(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
	files, err := s.user.ListFiles(ctx, intArg(inv.Args, "course_id"))
	if err != nil {
		return nil, err
	}
	return marshal(map[string]any{
		"total_files": len(files),
		"files":       files,
	})
}

func intArg(args json.RawMessage, key string) int64 {
	return gjson.GetBytes(args, key).Int()
}

func marshal(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}
