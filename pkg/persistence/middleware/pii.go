package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/session"
)

const piiMask = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks conversation vars and
// message attributes whose keys match any of the patterns before persisting.
// The in-memory session used by the engine is never touched; only the stored
// copy is masked.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, sess *session.Session) error {
	masked := sess.ReplaceVars(session.NewVars(maskMap(sess.Vars().AsMap(), m.patterns)))

	msgs := sess.Messages()
	rebuilt := make([]session.Message, len(msgs))
	for i, msg := range msgs {
		if msg.Attrs.Len() > 0 {
			msg.Attrs = session.NewAttrs(maskMap(msg.Attrs.AsMap(), m.patterns))
		}
		rebuilt[i] = msg
	}
	masked = masked.ReplaceMessages(rebuilt)

	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*session.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// maskMap returns a copy of m with values of matching keys replaced,
// recursing into nested maps.
func maskMap(m map[string]any, patterns []*regexp.Regexp) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if keyMatches(k, patterns) {
			out[k] = piiMask
			continue
		}
		if subMap, ok := v.(map[string]any); ok {
			out[k] = maskMap(subMap, patterns)
		} else {
			out[k] = v
		}
	}
	return out
}

func keyMatches(k string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(k) {
			return true
		}
	}
	return false
}
