package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Rorical/rorigreet/internal/app"
	"github.com/Rorical/rorigreet/internal/config"
	"github.com/Rorical/rorigreet/internal/logging"
)

var (
	configPath  string
	backendKind string
	scriptPath  string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "rorigreet",
	Short: "A terminal greeter for display managers",
	Long: `rorigreet is a terminal login greeter. It authenticates through PAM or greetd,
understands the extended account messages of pam-gooroom and starts the
chosen desktop session.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGreeter(cmd.Context(), "")
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file (default $RORIGREET_HOME/greeter.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendKind, "backend", "", "override the backend: pam, greetd or script")
	rootCmd.PersistentFlags().StringVar(&scriptPath, "script", "", "conversation script for the script backend")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadSettings applies the command line overrides to the settings file.
func loadSettings() (*config.Settings, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if backendKind != "" {
		cfg.Backend = backendKind
	}
	if scriptPath != "" {
		cfg.Script = scriptPath
	}
	if verbose {
		cfg.Log.Verbose = true
	}
	if backendKind != "" || scriptPath != "" {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newApplication(identity string) (*app.Application, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.LogPath(), cfg.Log.Verbose)
	if err != nil {
		return nil, err
	}
	logger.Info("greeter starting", zap.String("backend", cfg.Backend), zap.String("settings", cfg.Path()))

	application, err := app.NewApplication(app.Options{Settings: cfg, Logger: logger, Identity: identity})
	if err != nil {
		logger.Error("failed to create application", zap.Error(err))
		return nil, err
	}
	return application, nil
}

func runGreeter(ctx context.Context, identity string) error {
	application, err := newApplication(identity)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Stop()

	err = application.Start(ctx)
	if errors.Is(err, app.ErrNotLaunched) {
		fmt.Fprintln(os.Stderr, "No session started.")
		return nil
	}
	return err
}
