package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func Main(version string) {
	_ = godotenv.Load() // .env необязателен

	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "beat2video",
		Short:         "Render beat timelines into captioned Ken-Burns videos",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	root.PersistentFlags().BoolP("verbose", "v", false, "Подробный лог (debug)")

	root.AddCommand(newRenderCommand(version), newInitCommand(), newSetDurationCommand(), newFrameCommand())
	return root
}

// newLogger пишет структурированный лог в stderr, чтобы не мешать прогрессу.
func newLogger(cmd *cobra.Command) *zap.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
