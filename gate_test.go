package classpilot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateDeniesStudentMutation(t *testing.T) {
	g := NewGate(nil)
	available := map[string]bool{"list_user_courses": true, "get_course": true}

	v := g.Check("Please create a course called Biology 101", available, UserRoleStudent)

	assert.False(t, v.Allowed)
	assert.Equal(t, "create_course", v.RequiredTool)
	assert.Equal(t,
		"I don't have permission to create courses with student access. This action requires teacher or admin privileges.",
		v.Message)
}

func TestGateAllowsWhenToolAvailable(t *testing.T) {
	g := NewGate(nil)
	available := map[string]bool{"create_course": true}

	v := g.Check("create a new course for me", available, UserRoleTeacher)
	assert.True(t, v.Allowed)
	assert.Empty(t, v.Message)
}

func TestGateRequiresEveryKeyword(t *testing.T) {
	g := NewGate(nil)

	// "create" alone matches no rule completely.
	v := g.Check("create something nice", map[string]bool{}, UserRoleStudent)
	assert.True(t, v.Allowed)

	// Missing keyword on unrelated noun keeps the message allowed even
	// though a mutation verb is present.
	v = g.Check("delete my draft", map[string]bool{}, UserRoleStudent)
	assert.True(t, v.Allowed)
}

func TestGateDeniesDestructiveIntentForEveryRole(t *testing.T) {
	g := NewGate(nil)
	// No role exposes delete_course, so even a teacher is refused before
	// any model call happens.
	available := map[string]bool{"create_course": true, "list_user_courses": true}

	v := g.Check("delete this course", available, UserRoleTeacher)
	assert.False(t, v.Allowed)
	assert.Equal(t, "delete_course", v.RequiredTool)
	assert.Equal(t,
		"I don't have permission to delete courses with teacher access. That operation isn't available to any role.",
		v.Message)
}

func TestGateAdminOnlyDenialNamesAdmin(t *testing.T) {
	g := NewGate(nil)
	// A teacher's tool set: enroll_user is admin-only.
	available := map[string]bool{"create_course": true, "create_module": true}

	v := g.Check("enroll this user in my course", available, UserRoleTeacher)
	assert.False(t, v.Allowed)
	assert.Equal(t, "enroll_user", v.RequiredTool)
	assert.Equal(t,
		"I don't have permission to enroll users with teacher access. This action requires admin privileges.",
		v.Message)
}

func TestGateIsCaseInsensitive(t *testing.T) {
	g := NewGate(nil)
	v := g.Check("CREATE a COURSE now", map[string]bool{}, UserRoleStudent)
	assert.False(t, v.Allowed)
}

func TestGateNeutralMessagesPass(t *testing.T) {
	g := NewGate(nil)
	for _, msg := range []string{
		"what courses am I enrolled in?",
		"show me the assignments for course 42",
		"",
	} {
		v := g.Check(msg, map[string]bool{}, UserRoleStudent)
		assert.True(t, v.Allowed, "message %q should pass", msg)
	}
}

func TestGateCustomRules(t *testing.T) {
	g := NewGate([]GateRule{
		{Tool: "archive_course", Keywords: []string{"archive", "course"}, Action: "archive courses"},
	})
	v := g.Check("archive the course please", map[string]bool{}, UserRoleTeacher)
	assert.False(t, v.Allowed)
	assert.Equal(t, "archive_course", v.RequiredTool)
}
