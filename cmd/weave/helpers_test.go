package main

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weave/internal/testutils"
	promptlib "github.com/aretw0/weave/pkg/adapters/loam"
	"github.com/aretw0/weave/pkg/adapters/memory"
	"github.com/aretw0/weave/pkg/adapters/scripted"
	"github.com/aretw0/weave/pkg/persistence/middleware"
	"github.com/aretw0/weave/pkg/session"
)

func writeKeyFile(t *testing.T, raw []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.key")
	require.NoError(t, os.WriteFile(path, []byte(hex.EncodeToString(raw)+"\n"), 0o600))
	return path
}

func TestLoadEncryptionKey(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}

	key, err := loadEncryptionKey(writeKeyFile(t, raw))
	require.NoError(t, err)
	assert.Equal(t, raw, key)

	t.Run("wrong length", func(t *testing.T) {
		_, err := loadEncryptionKey(writeKeyFile(t, raw[:16]))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "64 hex characters")
	})

	t.Run("not hex", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.key")
		require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))
		_, err := loadEncryptionKey(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadEncryptionKey(filepath.Join(t.TempDir(), "absent.key"))
		require.Error(t, err)
	})
}

func TestStoreMiddleware_MasksAndEncrypts(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i * 3)
	}

	mws, err := storeMiddleware(writeKeyFile(t, raw), []string{"token"})
	require.NoError(t, err)
	require.Len(t, mws, 2)

	underlying := memory.NewStore()
	store := middleware.Chain(underlying, mws...)
	ctx := context.Background()

	sess := session.New(session.WithVars(session.NewVars(map[string]any{
		"token": "secret-token",
		"topic": "weather",
	}))).Append(session.NewMessage(session.RoleUser, "hello"))

	require.NoError(t, store.Save(ctx, "s1", sess))

	// At rest: an opaque envelope, no transcript, no plaintext vars.
	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, stored.Len())
	_, hasToken := stored.Var("token")
	assert.False(t, hasToken)

	// Through the chain: transcript intact, masked key replaced.
	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	assert.Equal(t, "hello", loaded.Messages()[0].Content)
	assert.Equal(t, "***", loaded.VarDefault("token", nil))
	assert.Equal(t, "weather", loaded.VarDefault("topic", nil))
}

func TestStoreMiddleware_Errors(t *testing.T) {
	_, err := storeMiddleware("", []string{"([a-z"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --mask pattern")

	mws, err := storeMiddleware("", nil)
	require.NoError(t, err)
	assert.Empty(t, mws)
}

func TestPromptSequence(t *testing.T) {
	_, repo := testutils.SetupPromptRepo(t)
	ctx := context.Background()

	docs := map[string]string{
		"persona.md": "---\nrole: system\n---\nBe terse.",
		"greet.md":   "---\nrole: user\n---\nHello {{name}}.",
		"answer.md":  "---\nrole: assistant\n---\nGreet back.",
	}
	for id, content := range docs {
		require.NoError(t, repo.Save(ctx, core.Document{ID: id, Content: content}))
	}

	lib := promptlib.NewFromRepository(
		loam.NewTypedRepository[promptlib.PromptMetadata](repo),
		promptlib.WithGenerator(scripted.NewTextGenerator("Hi Ada!")),
	)

	tmpl, err := promptSequence(ctx, lib, []string{"persona", "greet", "answer"})
	require.NoError(t, err)

	sess := session.New(session.WithVars(session.NewVars(map[string]any{"name": "Ada"})))
	final, err := tmpl.Execute(ctx, sess)
	require.NoError(t, err)

	msgs := final.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, session.RoleSystem, msgs[0].Role)
	assert.Equal(t, "Hello Ada.", msgs[1].Content)
	assert.Equal(t, "Hi Ada!", msgs[3].Content)

	t.Run("unknown id", func(t *testing.T) {
		_, err := promptSequence(ctx, lib, []string{"missing"})
		require.Error(t, err)
	})
}
