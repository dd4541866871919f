package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/weave/pkg/adapters/flowfile"
	httpAdapter "github.com/aretw0/weave/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP session server",
	Long: `Exposes sessions over a JSON API: create and inspect transcripts,
append messages, and execute named flows (registered with --flow name=path).`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		logger := getLogger(cmd)

		manager, err := getManager(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		compiler := flowfile.NewCompiler(
			flowfile.WithGenerator(getGenerator(cmd)),
			flowfile.WithLogger(logger),
		)
		flows, err := loadFlows(cmd, compiler)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		opts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}
		for name, tmpl := range flows {
			opts = append(opts, httpAdapter.WithFlow(name, tmpl))
		}

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: httpAdapter.NewHandler(manager, opts...),
		}

		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Weave Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Weave Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().StringArray("flow", nil, "Register a flow as name=path (repeatable)")
	serveCmd.Flags().StringArray("reply", nil, "Scripted assistant replies for flow generation (repeatable, looping)")
}
