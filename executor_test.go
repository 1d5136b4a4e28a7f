package classpilot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorUnknownTool(t *testing.T) {
	e := NewExecutor()

	env := e.Execute(context.Background(), "nope", Invocation{})
	assert.False(t, env.OK)
	assert.Contains(t, env.Error, "unknown function: nope")

	env = e.Execute(context.Background(), "", Invocation{})
	assert.False(t, env.OK)
}

func TestExecutorSuccessEnvelope(t *testing.T) {
	e := NewExecutor()
	e.Register("list_users", func(ctx context.Context, inv Invocation) (json.RawMessage, error) {
		return json.RawMessage(`{"total_users":2}`), nil
	})

	env := e.Execute(context.Background(), "list_users", Invocation{Role: UserRoleAdmin})
	require.True(t, env.OK)
	assert.JSONEq(t, `{"total_users":2}`, string(env.Data))
	assert.Empty(t, env.Error)
}

func TestExecutorHandlerErrorBecomesEnvelope(t *testing.T) {
	e := NewExecutor()
	e.Register("get_course", func(ctx context.Context, inv Invocation) (json.RawMessage, error) {
		return nil, errors.New("canvas: course 9 not found (status 404)")
	})

	env := e.Execute(context.Background(), "get_course", Invocation{})
	assert.False(t, env.OK)
	assert.Equal(t, "canvas: course 9 not found (status 404)", env.Error)
}

func TestExecutorPanicRecovered(t *testing.T) {
	e := NewExecutor()
	e.Register("boom", func(ctx context.Context, inv Invocation) (json.RawMessage, error) {
		panic("nil pointer somewhere")
	})

	env := e.Execute(context.Background(), "boom", Invocation{})
	assert.False(t, env.OK)
	assert.Contains(t, env.Error, "boom failed")
}

func TestExecutorRoleRestriction(t *testing.T) {
	e := NewExecutor()
	e.RegisterRestricted("enroll_user", func(ctx context.Context, inv Invocation) (json.RawMessage, error) {
		return json.RawMessage(`{"enrolled":true}`), nil
	}, UserRoleAdmin)

	env := e.Execute(context.Background(), "enroll_user", Invocation{Role: UserRoleStudent})
	assert.False(t, env.OK)
	assert.Contains(t, env.Error, "permission denied")

	env = e.Execute(context.Background(), "enroll_user", Invocation{Role: UserRoleAdmin})
	assert.True(t, env.OK)
}

func TestExecutorRoleSynonymsAllowed(t *testing.T) {
	e := NewExecutor()
	e.RegisterRestricted("create_course", func(ctx context.Context, inv Invocation) (json.RawMessage, error) {
		return nil, nil
	}, "instructor", UserRoleAdmin)

	// "instructor" registers as teacher, so any teacher synonym passes.
	for _, role := range []string{"teacher", "faculty", "instructor"} {
		env := e.Execute(context.Background(), "create_course", Invocation{Role: role})
		assert.True(t, env.OK, "role %q", role)
	}
}

func TestExecutorEmptyPayloadBecomesObject(t *testing.T) {
	e := NewExecutor()
	e.Register("publish_course", func(ctx context.Context, inv Invocation) (json.RawMessage, error) {
		return nil, nil
	})

	env := e.Execute(context.Background(), "publish_course", Invocation{})
	require.True(t, env.OK)
	assert.JSONEq(t, `{}`, string(env.Data))
	assert.JSONEq(t, `{"success":true,"data":{}}`, env.JSON())
}
