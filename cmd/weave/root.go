package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weave",
	Short: "Weave is a template engine for LLM conversations",
	Long: `Weave executes declarative conversation templates against immutable
sessions. Flows are defined in YAML and can be run interactively, replayed
from scripted inputs, or exposed over HTTP and MCP.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Project directory (session store lives under <dir>/.weave/sessions)")
	rootCmd.PersistentFlags().String("store", "file", "Session store backend: 'file' or 'redis'")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address (only for --store redis)")
	rootCmd.PersistentFlags().String("encrypt-key", "", "Path to a hex-encoded AES-256 key; encrypts sessions at rest")
	rootCmd.PersistentFlags().StringArray("mask", nil, "Mask vars/attrs whose keys match this pattern before persisting (repeatable)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}
