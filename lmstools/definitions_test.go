package lmstools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpilot/classpilot"
)

func TestCatalogBuilds(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)
	assert.Len(t, Definitions(), 16)
	assert.Len(t, c.DefinitionsFor(classpilot.UserRoleAdmin), 16)
}

func TestStudentVisibilityIsReadOnly(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	names := c.NamesFor(classpilot.UserRoleStudent)
	assert.True(t, names["list_user_courses"])
	assert.True(t, names["get_assignment"])
	assert.False(t, names["create_course"])
	assert.False(t, names["grade_assignment"])
	assert.False(t, names["enroll_user"])
}

func TestTeacherVisibility(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	names := c.NamesFor(classpilot.UserRoleTeacher)
	assert.True(t, names["create_course"])
	assert.True(t, names["grade_assignment"])
	assert.True(t, names["create_announcement"])
	assert.False(t, names["enroll_user"])
	assert.False(t, names["list_users"])
	assert.False(t, names["create_user"])
}

func TestRequiredSets(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	def, ok := c.Definition("grade_assignment")
	require.True(t, ok)
	assert.Equal(t, []string{"course_id", "assignment_id", "user_id", "grade"}, def.Required)

	def, ok = c.Definition("create_course")
	require.True(t, ok)
	assert.Equal(t, []string{"name", "course_code"}, def.Required)

	def, ok = c.Definition("list_users")
	require.True(t, ok)
	assert.Empty(t, def.Required)
}

func TestGateRulesCoverCatalogMutations(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)
	g := classpilot.NewGate(nil)

	// A student asking for a teacher-level mutation is blocked before any
	// model call; the same message passes for a teacher.
	v := g.Check("please create a course named Chemistry", c.NamesFor(classpilot.UserRoleStudent), classpilot.UserRoleStudent)
	assert.False(t, v.Allowed)

	v = g.Check("please create a course named Chemistry", c.NamesFor(classpilot.UserRoleTeacher), classpilot.UserRoleTeacher)
	assert.True(t, v.Allowed)

	v = g.Check("enroll user 42 in course 7", c.NamesFor(classpilot.UserRoleTeacher), classpilot.UserRoleTeacher)
	assert.False(t, v.Allowed, "enrollment is admin only")

	v = g.Check("enroll user 42 in course 7", c.NamesFor(classpilot.UserRoleAdmin), classpilot.UserRoleAdmin)
	assert.True(t, v.Allowed)
}
