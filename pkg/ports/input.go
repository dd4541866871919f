package ports

import "context"

// InputProvider reads a line of input from an interactive channel (terminal,
// HTTP long-poll, test script). The read blocks until input arrives, the
// channel is exhausted (io.EOF), or the context is canceled. Echo and
// formatting of the prompt are up to the implementation.
type InputProvider interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}

// InputProviderFunc adapts a function to the InputProvider interface.
type InputProviderFunc func(ctx context.Context, prompt string) (string, error)

// ReadLine calls f.
func (f InputProviderFunc) ReadLine(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
