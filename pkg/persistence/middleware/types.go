// Package middleware provides composable wrappers around a SessionStore:
// at-rest encryption and PII masking.
package middleware

import "github.com/aretw0/weave/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies middlewares around store; the first middleware is outermost.
func Chain(store ports.SessionStore, middlewares ...Middleware) ports.SessionStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
