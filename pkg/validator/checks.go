package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/weave/pkg/session"
)

// MatchRegexp validates that the content matches the given pattern.
// Construction panics on an invalid pattern, mirroring regexp.MustCompile.
// Use MatchRegexpErr when the pattern comes from external input.
func MatchRegexp(pattern string) Validator {
	v, err := MatchRegexpErr(pattern)
	if err != nil {
		panic(err)
	}
	return v
}

// MatchRegexpErr is MatchRegexp for patterns that are not compile-time
// constants (flow files, prompt frontmatter); a bad pattern is reported as
// an error instead of a panic.
func MatchRegexpErr(pattern string) (Validator, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid match pattern: %w", err)
	}
	return Func(func(ctx context.Context, content string, sess *session.Session) (Result, error) {
		if re.MatchString(content) {
			return Pass(), nil
		}
		return Fail(fmt.Sprintf("response must match the pattern %q", pattern)), nil
	}), nil
}

// MaxLength validates that the content does not exceed max runes.
func MaxLength(max int) Validator {
	return Func(func(ctx context.Context, content string, sess *session.Session) (Result, error) {
		if len([]rune(content)) <= max {
			return Pass(), nil
		}
		return Fail(fmt.Sprintf("response must be at most %d characters", max)), nil
	})
}

// Contains validates that the content contains the given substring.
func Contains(substr string) Validator {
	return Func(func(ctx context.Context, content string, sess *session.Session) (Result, error) {
		if strings.Contains(content, substr) {
			return Pass(), nil
		}
		return Fail(fmt.Sprintf("response must contain %q", substr)), nil
	})
}

// JSONObject validates that the content parses as a single JSON object.
func JSONObject() Validator {
	return Func(func(ctx context.Context, content string, sess *session.Session) (Result, error) {
		var obj map[string]any
		dec := json.NewDecoder(strings.NewReader(content))
		if err := dec.Decode(&obj); err != nil {
			return Fail("response must be a valid JSON object"), nil
		}
		// Trailing garbage after the object is also a failure.
		if dec.More() {
			return Fail("response must contain exactly one JSON object"), nil
		}
		return Pass(), nil
	})
}
