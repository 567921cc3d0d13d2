package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ombot-run/ombot/pkg/bot"
	"github.com/ombot-run/ombot/pkg/config"
	gh "github.com/ombot-run/ombot/pkg/github"
	botlog "github.com/ombot-run/ombot/pkg/log"
	"github.com/ombot-run/ombot/pkg/serve"
)

var (
	serveMention  string
	servePort     int
	serveStateDir string
	serveLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook bot",
	Long: `Start the webhook HTTP server and process GitHub issue_comment events.

Configuration is read from .ombot/config.yaml (searched upward from the
working directory) and the environment; flags override both. A GitHub
token must be provided via GITHUB_TOKEN or the config file.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadFromCurrentDir()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("mention") {
			cfg.MentionName = serveMention
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		if cmd.Flags().Changed("state-dir") {
			cfg.StateDir = serveStateDir
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = serveLogLevel
		}

		if err := botlog.Init(botlog.Config{Level: botlog.LogLevel(cfg.LogLevel), Format: "console"}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer botlog.Sync()

		if cfg.Token == "" {
			return errors.New("GitHub token is required (set GITHUB_TOKEN or token in config)")
		}

		clientOpts := []gh.Option{gh.WithTimeout(30 * time.Second)}
		if cfg.APIBaseURL != "" {
			clientOpts = append(clientOpts, gh.WithBaseURL(cfg.APIBaseURL))
		}
		client, err := gh.NewClient(cfg.Token, clientOpts...)
		if err != nil {
			return err
		}

		absStateDir, err := filepath.Abs(cfg.StateDir)
		if err != nil {
			return fmt.Errorf("failed to resolve state dir: %w", err)
		}

		ws, err := serve.NewWebhookServer(serve.WebhookConfig{
			Port:     cfg.Port,
			StateDir: absStateDir,
			Handler:  bot.NewHandler(client, cfg.MentionName),
		})
		if err != nil {
			return err
		}
		defer ws.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		botlog.Info("bot started", "mention", cfg.MentionName, "port", cfg.Port, "state_dir", absStateDir)
		if err := ws.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveMention, "mention", config.DefaultMentionName, "bot mention name in comment commands")
	serveCmd.Flags().IntVar(&servePort, "port", config.DefaultPort, "webhook listen port")
	serveCmd.Flags().StringVar(&serveStateDir, "state-dir", "", "directory for serve state and audit logs")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(serveCmd)
}
