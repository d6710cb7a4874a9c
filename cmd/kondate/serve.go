package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/kondate-dev/kondate/internal/agent"
	"github.com/kondate-dev/kondate/internal/config"
	"github.com/kondate-dev/kondate/internal/llm"
	"github.com/kondate-dev/kondate/internal/log"
	"github.com/kondate-dev/kondate/internal/namer"
	"github.com/kondate-dev/kondate/internal/server"
	"github.com/kondate-dev/kondate/internal/store"
	"github.com/kondate-dev/kondate/internal/userconfig"
)

var (
	flagListen string
	flagDB     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kondate API server",
	Long: `Start the HTTP API. Edit requests stream agent events as
line-delimited JSON; everything else is plain JSON.

The model provider is constructed once at startup and injected into
the edit orchestrator. Requires ANTHROPIC_API_KEY.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagDB, "db", "", "database path (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureHome(); err != nil {
		return err
	}

	userCfg, err := userconfig.Load()
	if err != nil {
		return err
	}

	listen := userCfg.Listen
	if flagListen != "" {
		listen = flagListen
	}
	dbPath := cfg.DBPath
	if flagDB != "" {
		dbPath = flagDB
	}

	model := userCfg.Model
	if envModel := config.GetModel(); envModel != "" {
		model = envModel
	}

	logger := log.Default()

	st, err := store.Open(dbPath, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := llm.NewClaudeProvider(model)
	if err != nil {
		return err
	}

	editor := agent.NewEditor(provider,
		agent.WithStepCap(config.GetEditStepCap()),
		agent.WithTimeout(config.GetEditTimeout()),
		agent.WithLogger(logger),
	)
	committer := store.NewCommitter(st, namer.New(provider), logger)
	srv := server.New(st, editor, committer, server.WithLogger(logger))

	logger.Info("starting server", "listen", listen, "db", dbPath, "provider", provider.Name())
	fmt.Printf("kondate listening on %s\n", listen)
	return http.ListenAndServe(listen, srv.Handler())
}
