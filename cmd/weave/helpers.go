package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/pkg/adapters/file"
	"github.com/aretw0/weave/pkg/adapters/flowfile"
	"github.com/aretw0/weave/pkg/adapters/redis"
	"github.com/aretw0/weave/pkg/adapters/scripted"
	"github.com/aretw0/weave/pkg/persistence/middleware"
	"github.com/aretw0/weave/pkg/ports"
	"github.com/aretw0/weave/pkg/storemanager"
	"github.com/aretw0/weave/pkg/template"
)

func getLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return logging.New(level)
}

// getStore builds the session store selected by the persistent flags,
// wrapped in the configured persistence middleware.
func getStore(cmd *cobra.Command) (ports.SessionStore, error) {
	var store ports.SessionStore

	backend, _ := cmd.Flags().GetString("store")
	switch backend {
	case "file", "":
		projectDir, _ := cmd.Flags().GetString("dir")
		if projectDir == "" {
			projectDir = "."
		}
		store = file.New(filepath.Join(projectDir, ".weave", "sessions"))
	case "redis":
		addr, _ := cmd.Flags().GetString("redis-addr")
		store = redis.New(addr, "", 0)
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: file, redis)", backend)
	}

	keyPath, _ := cmd.Flags().GetString("encrypt-key")
	masks, _ := cmd.Flags().GetStringArray("mask")
	mws, err := storeMiddleware(keyPath, masks)
	if err != nil {
		return nil, err
	}
	return middleware.Chain(store, mws...), nil
}

// storeMiddleware builds the persistence middleware stack: PII masking runs
// first so the encrypted envelope never contains the unmasked values.
func storeMiddleware(keyPath string, masks []string) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if len(masks) > 0 {
		for _, m := range masks {
			if _, err := regexp.Compile(m); err != nil {
				return nil, fmt.Errorf("invalid --mask pattern %q: %w", m, err)
			}
		}
		mws = append(mws, middleware.NewPIIMiddleware(masks))
	}

	if keyPath != "" {
		key, err := loadEncryptionKey(keyPath)
		if err != nil {
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	return mws, nil
}

// loadEncryptionKey reads a hex-encoded AES-256 key from a file.
func loadEncryptionKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encryption key: %w", err)
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("encryption key in %s must be 64 hex characters (32 bytes)", path)
	}
	return key, nil
}

func getManager(cmd *cobra.Command) (*storemanager.Manager, error) {
	store, err := getStore(cmd)
	if err != nil {
		return nil, err
	}
	return storemanager.New(store, storemanager.WithLogger(getLogger(cmd))), nil
}

// getGenerator builds the model backend for assistant steps. Scripted replies
// loop so a long-lived server never exhausts them.
func getGenerator(cmd *cobra.Command) ports.Generator {
	replies, _ := cmd.Flags().GetStringArray("reply")
	if len(replies) == 0 {
		return nil
	}
	outputs := make([]ports.ModelOutput, len(replies))
	for i, r := range replies {
		outputs[i] = ports.ModelOutput{Content: r}
	}
	return scripted.NewGenerator(outputs, scripted.WithLoop())
}

// loadFlows compiles every --flow name=path mapping into a template.
func loadFlows(cmd *cobra.Command, compiler *flowfile.Compiler) (map[string]template.Template, error) {
	specs, _ := cmd.Flags().GetStringArray("flow")
	flows := make(map[string]template.Template, len(specs))
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid --flow %q: expected name=path", spec)
		}
		tmpl, _, err := compiler.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load flow %q: %w", name, err)
		}
		flows[name] = tmpl
	}
	return flows, nil
}
