package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weave/pkg/adapters/memory"
	"github.com/aretw0/weave/pkg/persistence/middleware"
	"github.com/aretw0/weave/pkg/session"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretSession() *session.Session {
	return session.New(session.WithVars(session.NewVars(map[string]any{
		"secret": "my-secret-sauce",
	}))).Append(session.NewMessage(session.RoleUser, "my password is hunter2"))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	key := generateKey(t)
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(underlying)

	ctx := context.Background()
	require.NoError(t, secureStore.Save(ctx, "s1", secretSession()))

	// The underlying store only sees the opaque envelope.
	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Len(), "transcript must not be visible at rest")
	_, hasSecret := stored.Var("secret")
	assert.False(t, hasSecret, "vars must not be visible at rest")
	_, hasEnvelope := stored.Var("__encrypted__")
	assert.True(t, hasEnvelope)

	// Loading through the middleware restores everything.
	loaded, err := secureStore.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.VarDefault("secret", nil))
	require.Equal(t, 1, loaded.Len())
	assert.Equal(t, "my password is hunter2", loaded.Messages()[0].Content)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, "s1", secretSession()))

	// New active key, old key demoted to fallback: reads still work.
	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := rotated.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.VarDefault("secret", nil))

	// Without the fallback the old blob is unreadable.
	strict := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})(underlying)
	_, err = strict.Load(ctx, "s1")
	require.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainSessions(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()

	// A plain session lands in the store outside the middleware.
	require.NoError(t, underlying.Save(ctx, "plain", secretSession()))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secureStore.Load(ctx, "plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "envelope")
}

func TestEncryptionMiddleware_BadKeyLength(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}
