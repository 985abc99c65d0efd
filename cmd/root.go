package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michelleprabhu/bankchatbot/internal/config"
	"github.com/michelleprabhu/bankchatbot/internal/logging"
)

const defaultEnvFile = ".env"

var envFile string

var rootCmd = &cobra.Command{
	Use:   "bankchatbot",
	Short: "Bankchatbot - answers bank policy questions from a knowledge graph",
	Long: `Bankchatbot answers free-text questions about bank policies.

Each question is matched against records in a Neo4j knowledge graph, the
matches are placed in a prompt, and a hosted language model writes the answer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnv(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "Secrets file loaded before reading the environment")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnv loads the secrets file without overriding variables that are
// already set. A missing default file is ignored.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if path == defaultEnvFile && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadRuntime reads the configuration and builds the logger.
func loadRuntime() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
	return cfg, logger, nil
}
