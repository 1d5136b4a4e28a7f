package classpilot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateMergeCourseID(t *testing.T) {
	s := NewExecutionState()
	s.Merge([]byte(`{"course_id": 42, "total_modules": 3}`))
	assert.Equal(t, int64(42), s.CourseID)
}

func TestStateMergeRawCourseObject(t *testing.T) {
	s := NewExecutionState()
	s.Merge([]byte(`{"id": 7, "name": "Biology 101", "course_code": "BIO101", "workflow_state": "unpublished"}`))
	assert.Equal(t, int64(7), s.CourseID)
}

func TestStateMergeIgnoresBareID(t *testing.T) {
	// A bare id without a course_code marker could be any resource.
	s := NewExecutionState()
	s.Merge([]byte(`{"id": 99}`))
	assert.Zero(t, s.CourseID)
}

func TestStateMergeNamedResources(t *testing.T) {
	s := NewExecutionState()
	s.Merge([]byte(`{"module_id": 11, "name": "Week 1"}`))
	s.Merge([]byte(`{"assignment_id": 22, "name": "Essay"}`))
	s.Merge([]byte(`{"page_id": 33, "title": "Syllabus"}`))
	s.Merge([]byte(`{"quiz_id": 44, "title": "Midterm"}`))
	s.Merge([]byte(`{"module_id": 55}`))

	assert.Equal(t, int64(11), s.Modules["Week 1"])
	assert.Equal(t, int64(22), s.Assignments["Essay"])
	assert.Equal(t, int64(33), s.Pages["Syllabus"])
	assert.Equal(t, int64(44), s.Quizzes["Midterm"])
	assert.Equal(t, int64(55), s.Modules["unnamed"])
}

func TestStateMergeTolerantOfGarbage(t *testing.T) {
	s := NewExecutionState()
	s.Merge(nil)
	s.Merge([]byte(`not json`))
	s.Merge([]byte(`[1,2,3]`))
	assert.Zero(t, s.CourseID)
	assert.Empty(t, s.Modules)
}

func TestStateClone(t *testing.T) {
	s := NewExecutionState()
	s.CourseID = 5
	s.Modules["Week 1"] = 11

	c := s.Clone()
	c.Modules["Week 2"] = 12
	c.CourseID = 6

	assert.Equal(t, int64(5), s.CourseID)
	assert.NotContains(t, s.Modules, "Week 2")
}
