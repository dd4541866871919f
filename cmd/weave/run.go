package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/weave/pkg/adapters/flowfile"
	promptlib "github.com/aretw0/weave/pkg/adapters/loam"
	"github.com/aretw0/weave/pkg/adapters/scripted"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/runner"
	"github.com/aretw0/weave/pkg/session"
	"github.com/aretw0/weave/pkg/template"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <flow.yaml> | run --prompts <dir> <prompt-id>...",
	Short: "Run a conversation flow",
	Long: `Compiles a YAML flow file and executes it. With --prompts, the
arguments are prompt IDs resolved from a markdown prompt library instead of a
flow file. Input steps read from the terminal unless --input provides
scripted lines; assistant steps require --reply scripted responses (or no
assistant steps at all).`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		promptsDir, _ := cmd.Flags().GetString("prompts")

		var err error
		if promptsDir != "" {
			err = runPrompts(cmd, promptsDir, args)
		} else {
			err = runFlow(cmd, args[0])
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runFlow(cmd *cobra.Command, path string) error {
	logger := getLogger(cmd)
	console := runner.NewConsole(os.Stdin, os.Stdout)

	var input ports.InputProvider = console
	if lines, _ := cmd.Flags().GetStringArray("input"); len(lines) > 0 {
		input = scripted.NewInput(lines...)
	}

	compiler := flowfile.NewCompiler(
		flowfile.WithGenerator(getGenerator(cmd)),
		flowfile.WithInput(input),
		flowfile.WithLogger(logger),
	)

	tmpl, sess, err := compiler.LoadFile(path)
	if err != nil {
		return err
	}
	return executeTemplate(cmd, console, tmpl, sess)
}

// runPrompts resolves each argument as a prompt ID from the library and runs
// them in order as one sequence.
func runPrompts(cmd *cobra.Command, dir string, ids []string) error {
	logger := getLogger(cmd)
	console := runner.NewConsole(os.Stdin, os.Stdout)

	lib, err := promptlib.Open(dir,
		promptlib.WithGenerator(getGenerator(cmd)),
		promptlib.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	tmpl, err := promptSequence(cmd.Context(), lib, ids)
	if err != nil {
		return err
	}
	return executeTemplate(cmd, console, tmpl, session.New())
}

func promptSequence(ctx context.Context, lib *promptlib.Library, ids []string) (template.Template, error) {
	steps := make([]template.Template, 0, len(ids))
	for _, id := range ids {
		tmpl, err := lib.Template(ctx, id)
		if err != nil {
			return nil, err
		}
		steps = append(steps, tmpl)
	}
	return template.NewSequence(steps...), nil
}

func executeTemplate(cmd *cobra.Command, console *runner.Console, tmpl template.Template, sess *session.Session) error {
	console.Banner()
	sess = sess.WithPrint(true).WithObserver(console)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	final, err := tmpl.Execute(ctx, sess)
	if err != nil {
		if errors.Is(err, runner.ErrExit) {
			fmt.Println("Bye!")
			return nil
		}
		return err
	}

	if id, _ := cmd.Flags().GetString("save"); id != "" {
		store, err := getStore(cmd)
		if err != nil {
			return err
		}
		if err := store.Save(cmd.Context(), id, final); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		getLogger(cmd).Info("session saved", "session_id", id, "messages", final.Len())
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("prompts", "", "Run prompt IDs from this markdown prompt library instead of a flow file")
	runCmd.Flags().StringArray("input", nil, "Scripted user input lines (repeatable; replaces the terminal)")
	runCmd.Flags().StringArray("reply", nil, "Scripted assistant replies (repeatable, looping)")
	runCmd.Flags().String("save", "", "Persist the final session under this ID")
}
