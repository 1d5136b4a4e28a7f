package lmstools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/classpilot/classpilot"
	"github.com/classpilot/classpilot/canvas"
)

func newExecutorAgainst(t *testing.T, handler http.HandlerFunc) (*classpilot.Executor, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := canvas.NewClient(srv.URL, "test-token")
	svc := NewService(client, client, zerolog.Nop())
	e := classpilot.NewExecutor()
	svc.RegisterAll(e)
	return e, srv
}

func TestListUserCoursesShape(t *testing.T) {
	e, _ := newExecutorAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]canvas.Course{
			{ID: 1, Name: "Biology 101", CourseCode: "BIO101", WorkflowState: "available"},
			{ID: 2, Name: "Chemistry", CourseCode: "CHEM1", WorkflowState: "unpublished"},
		})
	})

	env := e.Execute(context.Background(), "list_user_courses", classpilot.Invocation{Role: classpilot.UserRoleStudent})
	require.True(t, env.OK, env.Error)
	assert.Equal(t, int64(2), gjson.GetBytes(env.Data, "total_courses").Int())
	assert.Equal(t, "BIO101", gjson.GetBytes(env.Data, "courses.0.course_code").String())
	assert.Equal(t, "unpublished", gjson.GetBytes(env.Data, "courses.1.workflow_state").String())
}

func TestCreateCourseAutoEnrollsTeacher(t *testing.T) {
	var paths []string
	e, _ := newExecutorAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/v1/accounts/1/courses":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(canvas.Course{ID: 7, Name: "Biology 101", CourseCode: "BIO101"})
		case "/api/v1/courses/7/enrollments":
			var body map[string]map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, canvas.TeacherEnrollment, body["enrollment"]["type"])
			assert.EqualValues(t, 42, body["enrollment"]["user_id"])
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(canvas.Enrollment{ID: 1, CourseID: 7, UserID: 42})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	env := e.Execute(context.Background(), "create_course", classpilot.Invocation{
		Role:   classpilot.UserRoleTeacher,
		UserID: 42,
		Args:   json.RawMessage(`{"name":"Biology 101","course_code":"BIO101"}`),
	})
	require.True(t, env.OK, env.Error)
	assert.Equal(t, int64(7), gjson.GetBytes(env.Data, "id").Int())
	require.Len(t, paths, 2, "course creation then enrollment")
}

func TestCreateCourseAsAdminSkipsAutoEnroll(t *testing.T) {
	var paths []string
	e, _ := newExecutorAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(canvas.Course{ID: 8, Name: "Physics", CourseCode: "PHY1"})
	})

	env := e.Execute(context.Background(), "create_course", classpilot.Invocation{
		Role:   classpilot.UserRoleAdmin,
		UserID: 1,
		Args:   json.RawMessage(`{"name":"Physics","course_code":"PHY1"}`),
	})
	require.True(t, env.OK)
	assert.Len(t, paths, 1)
}

func TestGradeAssignmentFormatsNumericGrade(t *testing.T) {
	e, _ := newExecutorAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses/7/assignments/3/submissions/42", r.URL.Path)
		var body map[string]map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "92.5", body["submission"]["posted_grade"])
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(canvas.Submission{ID: 9, Grade: "92.5", UserID: 42, AssignmentID: 3})
	})

	env := e.Execute(context.Background(), "grade_assignment", classpilot.Invocation{
		Role: classpilot.UserRoleTeacher,
		Args: json.RawMessage(`{"course_id":7,"assignment_id":3,"user_id":42,"grade":92.5}`),
	})
	require.True(t, env.OK, env.Error)
	assert.Equal(t, "92.5", gjson.GetBytes(env.Data, "grade").String())
}

func TestRoleEnforcementAtExecution(t *testing.T) {
	e, _ := newExecutorAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("the backend must never be reached")
	})

	env := e.Execute(context.Background(), "enroll_user", classpilot.Invocation{
		Role: classpilot.UserRoleTeacher,
		Args: json.RawMessage(`{"course_id":7,"user_id":42,"role":"StudentEnrollment"}`),
	})
	assert.False(t, env.OK)
	assert.Contains(t, env.Error, "permission denied")

	env = e.Execute(context.Background(), "create_course", classpilot.Invocation{
		Role: classpilot.UserRoleStudent,
		Args: json.RawMessage(`{"name":"x","course_code":"y"}`),
	})
	assert.False(t, env.OK)
}

func TestBackendFailureBecomesErrorEnvelope(t *testing.T) {
	e, _ := newExecutorAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"message":"not found"}]}`))
	})

	env := e.Execute(context.Background(), "get_course", classpilot.Invocation{
		Role: classpilot.UserRoleStudent,
		Args: json.RawMessage(`{"course_id":999}`),
	})
	assert.False(t, env.OK)
	assert.Contains(t, env.Error, "404")
}

func TestCreateModuleResultCarriesStateFields(t *testing.T) {
	e, _ := newExecutorAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(canvas.Module{ID: 11, Name: "Week 1", Position: 1})
	})

	env := e.Execute(context.Background(), "create_module", classpilot.Invocation{
		Role: classpilot.UserRoleTeacher,
		Args: json.RawMessage(`{"course_id":7,"name":"Week 1"}`),
	})
	require.True(t, env.OK, env.Error)

	// The result feeds execution state tracking by field name.
	s := classpilot.NewExecutionState()
	s.Merge(env.Data)
	assert.Equal(t, int64(11), s.Modules["Week 1"])
	assert.Equal(t, int64(7), s.CourseID)
}
