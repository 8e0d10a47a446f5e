package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/erazemk/zaloga/internal/cloud"
	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/store"
)

// levelRouter is a slog.Handler that routes records below ERROR to stdout and
// ERROR+ to stderr, dropping anything under min.
type levelRouter struct {
	min    slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. DEBUG/INFO/WARN go to stdout,
// ERROR goes to stderr. If a log path is configured, all levels are also
// written to a rotating file. Returns a cleanup function that closes the log file.
func setupLogger(cfg config.LogConfig) (func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	cleanup := func() {}

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if cfg.Path != "" {
		f := &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		min:    level,
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

// app is the composition root: one store and, when configured, one mirror.
type app struct {
	cfg    *config.Config
	store  *store.Store
	mirror *cloud.Mirror
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

var (
	configFile string
	current    *app
	closeLog   = func() {}
)

var rootCmd = &cobra.Command{
	Use:           "zaloga",
	Short:         "Local inventory tracking with an optional cloud mirror",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}
		closeLog, err = setupLogger(cfg.Log)
		if err != nil {
			closeLog = func() {}
			return err
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		a := &app{cfg: cfg, store: store.New(cfg.DBPath())}
		if cfg.CloudEnabled() {
			fs, err := cloud.NewFirestore(cmd.Context(), cloud.Config{
				Project:         cfg.Firestore.Project,
				Database:        cfg.Firestore.Database,
				CredentialsFile: cfg.Firestore.Credentials,
				Endpoint:        cfg.Firestore.Endpoint,
			})
			if err != nil {
				return err
			}
			a.mirror = cloud.NewMirror(fs)
		}
		current = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current != nil {
			current.close()
		}
		closeLog()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default: ./zaloga.yaml if present)")
	pf.StringP("data-dir", "d", "", "directory holding the item database")
	pf.StringP("log", "l", "", "log file path (default: stdout/stderr only)")
	pf.String("auth-secret", "", "secret used to verify session tokens")
	pf.String("firestore-project", "", "Firestore project for the cloud mirror")
	pf.String("firestore-endpoint", "", "Firestore endpoint override (emulator)")

	rootCmd.AddCommand(serveCmd, migrateCmd, listCmd, addCmd, updateCmd, deleteCmd, pushCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "error", err)
		if current != nil {
			current.close()
		}
		closeLog()
		os.Exit(1)
	}
}
