// Package runner provides an interactive console for conversation flows. The
// Console is both the input provider templates read from and the observer
// that prints messages as they are appended, with markdown rendering and
// role-colored output on capable terminals.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/aretw0/weave/internal/presentation/tui"
	"github.com/aretw0/weave/pkg/session"
)

// ErrExit is returned by ReadLine when the user asks to leave the
// conversation ("exit" or "quit").
var ErrExit = errors.New("user requested exit")

// Console implements ports.InputProvider and session.Observer over a
// terminal or any reader/writer pair.
type Console struct {
	reader      *bufio.Reader
	writer      io.Writer
	render      func(string) (string, error)
	interactive bool

	// Last line handed out by ReadLine, pending its echo suppression: the
	// user already saw it while typing.
	lastRead    string
	lastPending bool
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithMarkdown forces markdown rendering of assistant messages on or off.
// The default is on only when stdout is a terminal.
func WithMarkdown(enabled bool) ConsoleOption {
	return func(c *Console) {
		if enabled {
			c.render = tui.NewRenderer()
		} else {
			c.render = nil
		}
	}
}

// NewConsole creates a console over the given reader and writer. Nil values
// default to stdin and stdout.
func NewConsole(r io.Reader, w io.Writer, opts ...ConsoleOption) *Console {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}

	c := &Console{
		reader: bufio.NewReader(r),
		writer: w,
	}

	// Color and markdown only make sense on a real terminal.
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.interactive = true
		c.render = tui.NewRenderer()
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Banner prints the startup banner when running interactively.
func (c *Console) Banner() {
	if c.interactive {
		tui.PrintBanner()
	}
}

// ReadLine prompts and reads one line of input. Typing "exit" or "quit"
// returns ErrExit. Input is sanitized before being handed to the engine.
func (c *Console) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if prompt != "" {
		fmt.Fprint(c.writer, c.accent(prompt, tui.ColorPrompt))
	}

	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) {
			return "", ErrExit
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	line = strings.TrimRight(line, "\r\n")
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return "", ErrExit
	}

	clean, err := SanitizeInput(line)
	if err != nil {
		return "", err
	}
	c.lastRead = clean
	c.lastPending = true
	return clean, nil
}

// ObserveMessage prints an appended message with its role label. Assistant
// content is rendered as markdown when a renderer is active.
func (c *Console) ObserveMessage(msg session.Message) {
	switch msg.Role {
	case session.RoleAssistant:
		content := msg.Content
		if c.render != nil {
			if rendered, err := c.render(content); err == nil {
				content = strings.TrimSpace(rendered)
			}
		}
		fmt.Fprintf(c.writer, "%s %s\n", c.accent("assistant:", tui.ColorAssistant), content)

	case session.RoleSystem:
		fmt.Fprintf(c.writer, "%s %s\n", c.accent("system:", tui.ColorSystem), msg.Content)

	case session.RoleUser:
		// Skip the echo when this console read the line itself; the user
		// already saw it. Lines from elsewhere (scripted runs, flow files,
		// static steps) still print.
		if c.lastPending && msg.Content == c.lastRead {
			c.lastPending = false
			return
		}
		fmt.Fprintf(c.writer, "%s %s\n", c.accent("user:", tui.ColorUser), msg.Content)

	default:
		fmt.Fprintf(c.writer, "%s: %s\n", msg.Role, msg.Content)
	}
}

func (c *Console) accent(text, color string) string {
	if !c.interactive {
		return text
	}
	return tui.Accent(text, color)
}
