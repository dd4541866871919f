package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weave/pkg/session"
)

func TestAll(t *testing.T) {
	ctx := context.Background()

	t.Run("all pass", func(t *testing.T) {
		v := All(Contains("a"), Contains("b"))
		res, err := v.Validate(ctx, "ab", nil)
		require.NoError(t, err)
		assert.True(t, res.OK)
	})

	t.Run("short-circuits on first failure", func(t *testing.T) {
		calls := 0
		v := All(
			Contains("missing"),
			Func(func(ctx context.Context, content string, sess *session.Session) (Result, error) {
				calls++
				return Pass(), nil
			}),
		)
		res, err := v.Validate(ctx, "content", nil)
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Contains(t, res.Instruction, "missing")
		assert.Equal(t, 0, calls, "second validator must not run after a failure")
	})

	t.Run("propagates evaluation errors", func(t *testing.T) {
		boom := errors.New("boom")
		v := All(Func(func(ctx context.Context, content string, sess *session.Session) (Result, error) {
			return Result{}, boom
		}))
		_, err := v.Validate(ctx, "x", nil)
		assert.ErrorIs(t, err, boom)
	})
}

func TestAny(t *testing.T) {
	ctx := context.Background()

	t.Run("one pass suffices", func(t *testing.T) {
		v := Any(Contains("nope"), Contains("yes"))
		res, err := v.Validate(ctx, "yes indeed", nil)
		require.NoError(t, err)
		assert.True(t, res.OK)
	})

	t.Run("concatenates instructions on total failure", func(t *testing.T) {
		v := Any(Contains("alpha"), Contains("beta"))
		res, err := v.Validate(ctx, "gamma", nil)
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Contains(t, res.Instruction, "alpha")
		assert.Contains(t, res.Instruction, "beta")
	})
}

func TestMatchRegexp(t *testing.T) {
	v := MatchRegexp(`^\d+$`)
	res, err := v.Validate(context.Background(), "12345", nil)
	require.NoError(t, err)
	assert.True(t, res.OK)

	res, err = v.Validate(context.Background(), "not a number", nil)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Instruction)
}

func TestMatchRegexpErr(t *testing.T) {
	_, err := MatchRegexpErr("([a-z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid match pattern")

	v, err := MatchRegexpErr(`^\d+$`)
	require.NoError(t, err)
	res, err := v.Validate(context.Background(), "42", nil)
	require.NoError(t, err)
	assert.True(t, res.OK)

	assert.Panics(t, func() { MatchRegexp("([a-z") })
}

func TestMaxLength(t *testing.T) {
	v := MaxLength(3)
	res, _ := v.Validate(context.Background(), "abc", nil)
	assert.True(t, res.OK)
	res, _ = v.Validate(context.Background(), "abcd", nil)
	assert.False(t, res.OK)
}

func TestJSONObject(t *testing.T) {
	v := JSONObject()

	res, _ := v.Validate(context.Background(), `{"ok": true}`, nil)
	assert.True(t, res.OK)

	res, _ = v.Validate(context.Background(), `not json`, nil)
	assert.False(t, res.OK)

	res, _ = v.Validate(context.Background(), `{"a":1} trailing`, nil)
	assert.False(t, res.OK)
}
