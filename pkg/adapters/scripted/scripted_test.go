package scripted_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weave"
	"github.com/aretw0/weave/pkg/adapters/scripted"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
)

func TestGenerator_ReplaysInOrder(t *testing.T) {
	gen := scripted.NewTextGenerator("first", "second")
	ctx := context.Background()

	out, err := gen.Generate(ctx, session.New(), ports.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "first", out.Content)

	out, err = gen.Generate(ctx, session.New(), ports.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "second", out.Content)
	assert.Equal(t, 0, gen.Remaining())

	_, err = gen.Generate(ctx, session.New(), ports.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestGenerator_Loop(t *testing.T) {
	gen := scripted.NewGenerator(
		[]ports.ModelOutput{{Content: "a"}, {Content: "b"}},
		scripted.WithLoop(),
	)
	ctx := context.Background()

	var got []string
	for range 5 {
		out, err := gen.Generate(ctx, session.New(), ports.GenerateOptions{})
		require.NoError(t, err)
		got = append(got, out.Content)
	}
	assert.Equal(t, []string{"a", "b", "a", "b", "a"}, got)
}

func TestInput_ReplaysLines(t *testing.T) {
	input := scripted.NewInput("yes", "no")
	ctx := context.Background()

	line, err := input.ReadLine(ctx, "? ")
	require.NoError(t, err)
	assert.Equal(t, "yes", line)

	line, err = input.ReadLine(ctx, "? ")
	require.NoError(t, err)
	assert.Equal(t, "no", line)

	_, err = input.ReadLine(ctx, "? ")
	require.Error(t, err)
}

func TestScripted_DrivesAgent(t *testing.T) {
	agent := weave.NewAgent("demo",
		weave.WithGenerator(scripted.NewTextGenerator("scripted reply")),
		weave.WithInput(scripted.NewInput("scripted question")),
	).
		UserInput("> ").
		Assistant()

	sess, err := agent.Execute(context.Background(), nil)
	require.NoError(t, err)

	msgs := sess.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "scripted question", msgs[0].Content)
	assert.Equal(t, "scripted reply", msgs[1].Content)
}
