package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/validator"
)

// rejectFirst fails the first n validations, then passes.
func rejectFirst(n int) validator.Validator {
	seen := 0
	return validator.Func(func(ctx context.Context, content string, sess *session.Session) (validator.Result, error) {
		seen++
		if seen <= n {
			return validator.Fail("try again"), nil
		}
		return validator.Pass(), nil
	})
}

func TestCallbackRetryConvergence(t *testing.T) {
	calls := 0
	src := NewCallback(
		func(ctx context.Context, sess *session.Session) (string, error) {
			calls++
			return "attempt", nil
		},
		WithMaxAttempts(3),
		WithValidator(rejectFirst(2)),
	)

	out, err := src.GetContent(context.Background(), session.New())
	require.NoError(t, err)
	assert.Equal(t, "attempt", out.Content)
	assert.Equal(t, 3, calls, "producer must be invoked exactly once per attempt")
}

func TestRetryExhaustionRaises(t *testing.T) {
	calls := 0
	src := NewCallback(
		func(ctx context.Context, sess *session.Session) (string, error) {
			calls++
			return "never good", nil
		},
		WithMaxAttempts(2),
		WithValidator(validator.Contains("impossible")),
	)

	_, err := src.GetContent(context.Background(), session.New())
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, 2, valErr.Attempts)
	assert.Contains(t, valErr.Instruction, "impossible")
	assert.Equal(t, 2, calls)
}

func TestRetryExhaustionBestEffort(t *testing.T) {
	src := NewStatic("invalid but returned",
		WithMaxAttempts(2),
		WithValidator(validator.Contains("impossible")),
		WithBestEffort(),
	)

	out, err := src.GetContent(context.Background(), session.New())
	require.NoError(t, err, "best-effort mode must not surface an error")
	assert.Equal(t, "invalid but returned", out.Content)
}

func TestStatic(t *testing.T) {
	src := NewStatic("fixed")
	out, err := src.GetContent(context.Background(), session.New())
	require.NoError(t, err)
	assert.Equal(t, "fixed", out.Content)
}

func TestListExhausts(t *testing.T) {
	src := NewList([]string{"one", "two"})
	ctx := context.Background()
	sess := session.New()

	out, err := src.GetContent(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "one", out.Content)

	out, err = src.GetContent(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "two", out.Content)

	_, err = src.GetContent(ctx, sess)
	var exhausted *ExhaustionError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Items)
}

func TestListCycles(t *testing.T) {
	src := NewList([]string{"a", "b"}, WithCycle())
	ctx := context.Background()
	sess := session.New()

	var got []string
	for range 5 {
		out, err := src.GetContent(ctx, sess)
		require.NoError(t, err)
		got = append(got, out.Content)
	}
	assert.Equal(t, []string{"a", "b", "a", "b", "a"}, got)
}

func TestInputSurfacesInstructionAsPrompt(t *testing.T) {
	var prompts []string
	answers := []string{"bad", "good"}
	provider := ports.InputProviderFunc(func(ctx context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		answer := answers[0]
		answers = answers[1:]
		return answer, nil
	})

	src := NewInput(provider, "> ",
		WithMaxAttempts(2),
		WithValidator(validator.Contains("good")),
	)

	out, err := src.GetContent(context.Background(), session.New())
	require.NoError(t, err)
	assert.Equal(t, "good", out.Content)
	require.Len(t, prompts, 2)
	assert.Equal(t, "> ", prompts[0])
	assert.Contains(t, prompts[1], "good", "retry prompt must carry the instruction")
}

func TestGenerationRetryGuidance(t *testing.T) {
	var seenLens []int
	gen := ports.GeneratorFunc(func(ctx context.Context, sess *session.Session, opts ports.GenerateOptions) (ports.ModelOutput, error) {
		seenLens = append(seenLens, sess.Len())
		return ports.ModelOutput{Content: "output"}, nil
	})

	base := session.New().Append(session.NewMessage(session.RoleUser, "hi"))
	src := NewGeneration(gen,
		WithMaxAttempts(2),
		WithValidator(rejectFirst(1)),
	)

	out, err := src.GetContent(context.Background(), base)
	require.NoError(t, err)
	assert.Equal(t, "output", out.Content)

	// The retry sees the guidance turn; the caller's session stays untouched.
	require.Equal(t, []int{1, 2}, seenLens)
	assert.Equal(t, 1, base.Len())
}

func TestGenerationPropagatesBackendError(t *testing.T) {
	boom := errors.New("upstream unavailable")
	src := NewGeneration(ports.GeneratorFunc(func(ctx context.Context, sess *session.Session, opts ports.GenerateOptions) (ports.ModelOutput, error) {
		return ports.ModelOutput{}, boom
	}))

	_, err := src.GetContent(context.Background(), session.New())
	assert.ErrorIs(t, err, boom)
}

func TestGovernorSharedAcrossClones(t *testing.T) {
	gen := ports.GeneratorFunc(func(ctx context.Context, sess *session.Session, opts ports.GenerateOptions) (ports.ModelOutput, error) {
		return ports.ModelOutput{Content: "ok"}, nil
	})

	gov := NewGovernor(3)
	base := NewGeneration(gen).WithGovernor(gov)
	clone := base.WithModel("other").WithTemperature(0.2)

	ctx := context.Background()
	sess := session.New()

	_, err := base.GetContent(ctx, sess)
	require.NoError(t, err)
	_, err = clone.GetContent(ctx, sess)
	require.NoError(t, err)
	_, err = clone.GetContent(ctx, sess)
	require.NoError(t, err)

	// Fourth call across the clone family trips the shared ceiling.
	_, err = base.GetContent(ctx, sess)
	var govErr *GovernorError
	require.ErrorAs(t, err, &govErr)
	assert.Equal(t, 3, govErr.Limit)

	gov.Reset()
	_, err = base.GetContent(ctx, sess)
	assert.NoError(t, err, "reset must restore the budget")
}

func TestNilGovernorEnforcesNothing(t *testing.T) {
	gen := ports.GeneratorFunc(func(ctx context.Context, sess *session.Session, opts ports.GenerateOptions) (ports.ModelOutput, error) {
		return ports.ModelOutput{Content: "ok"}, nil
	})
	src := NewGeneration(gen)

	ctx := context.Background()
	sess := session.New()
	for range DefaultCallLimit + 10 {
		_, err := src.GetContent(ctx, sess)
		require.NoError(t, err)
	}
}

func TestCloneKeepsOptions(t *testing.T) {
	gen := ports.GeneratorFunc(func(ctx context.Context, sess *session.Session, opts ports.GenerateOptions) (ports.ModelOutput, error) {
		return ports.ModelOutput{Content: opts.Model}, nil
	})

	src := NewGeneration(gen).WithModel("m1")
	clone := src.WithMaxTokens(64)

	out, err := clone.GetContent(context.Background(), session.New())
	require.NoError(t, err)
	assert.Equal(t, "m1", out.Content)
	assert.Equal(t, 64, clone.Options().MaxTokens)
	assert.Zero(t, src.Options().MaxTokens, "clone must not mutate its parent")
}
