// Package main is the entry point for the pdfmessages CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/config"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is the configuration loaded before every subcommand runs.
var cfg config.Config

// flagKeys maps command flags onto configuration keys, per top-level command.
// The "" entry holds flags shared by every command. A flag only overrides the
// configuration when it was set on the command line.
var flagKeys = map[string]map[string]string{
	"": {
		"log-level": "log_level",
		"api-key":   "api_key",
		"base-url":  "base_url",
	},
	"extract": {
		"jobs":                "extract.jobs",
		"overwrite":           "extract.overwrite",
		"keep-partial":        "extract.keep_partial",
		"y-tolerance":         "extract.y_tolerance",
		"alignment-threshold": "extract.alignment_threshold",
		"progress-every":      "extract.progress_every",
	},
	"ocr": {
		"engine":     "ocr.engine",
		"mode":       "ocr.mode",
		"model":      "ocr.model",
		"dpi":        "ocr.dpi",
		"max-width":  "ocr.max_width",
		"page-delay": "ocr.page_delay",
		"recursive":  "ocr.recursive",
		"skip":       "ocr.skip",
		"lang":       "ocr.languages",
	},
	"embed": {
		"embedding-model": "embeddings.model",
		"limit":           "embeddings.limit",
		"index":           "embeddings.index",
	},
}

var rootCmd = &cobra.Command{
	Use:   "pdfmessages",
	Short: "Recover conversations from PDF message exports",
	Long: `pdfmessages turns exported message-history PDFs back into readable
conversations. Text-layer PDFs are reconstructed line by line and each line is
classified as sent or received by its horizontal position. Scanned PDFs are
transcribed page by page with a vision model or a local OCR engine, and the
resulting text can be embedded for semantic search.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}

		cfgFile, _ := cmd.Flags().GetString("config")
		v, err := config.NewViper(cfgFile)
		if err != nil {
			return err
		}
		if err := bindFlags(v, cmd); err != nil {
			return err
		}

		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded

		setupLogging(cfg.LogLevel)
		if used := v.ConfigFileUsed(); used != "" {
			slog.Debug("using config file", "path", used)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdfmessages.yaml or ~/.config/pdfmessages/pdfmessages.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
}

// bindFlags binds every changed flag of cmd that has a configuration key
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	scoped := flagKeys[topLevel(cmd).Name()]
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed || err != nil {
			return
		}
		key, ok := scoped[f.Name]
		if !ok {
			key, ok = flagKeys[""][f.Name]
		}
		if ok {
			err = v.BindPFlag(key, f)
		}
	})
	return err
}

// topLevel returns the ancestor of cmd directly below the root command
func topLevel(cmd *cobra.Command) *cobra.Command {
	for cmd.HasParent() && cmd.Parent().HasParent() {
		cmd = cmd.Parent()
	}
	return cmd
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		l = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	slog.SetDefault(slog.New(handler))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
