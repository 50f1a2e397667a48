package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sapiocode/sapio/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d, err := openDeps(ctx, cfg, features{llm: true, transcribe: true, graph: true})
		if err != nil {
			return err
		}
		defer d.Close(context.WithoutCancel(ctx))

		d.log.Info("sapio starting",
			"version", version,
			"llm", cfg.LLM.Provider,
			"transcribe", cfg.Transcribe.Provider,
			"redis", cfg.Cache.RedisAddr != "",
			"neo4j", cfg.Graph.URI != "",
		)
		return server.New(cfg.Server, d.svc, d.log).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
