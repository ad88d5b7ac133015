package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"davman/internal/config"
	"davman/internal/dav"
	"davman/internal/telemetry"
	"davman/internal/ui"
)

// version is overridden at release build time via
// -ldflags "-X main.version=...".
var version = "dev"

func newRootCommand() *cobra.Command {
	var configFlag string
	var serverFlag string

	cmd := &cobra.Command{
		Use:           "davman",
		Short:         "Terminal client for WebDAV calendar collections",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFlag, serverFlag)
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&serverFlag, "server", "", "DAV server URL (overrides config)")

	return cmd
}

func run(configPath, serverURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}

	ctx := context.Background()
	provider, err := telemetry.Setup(ctx, cfg.Trace)
	if err != nil {
		return err
	}

	client, err := dav.NewClient(cfg.Server.URL, cfg.Timeout(), cfg.Server.InsecureSkipVerify)
	if err != nil {
		return err
	}

	app := ui.NewApp(cfg, client)
	p := tea.NewProgram(app.AsTeaModel(), tea.WithAltScreen())
	_, runErr := p.Run()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = provider.Shutdown(shutdownCtx)

	return runErr
}
