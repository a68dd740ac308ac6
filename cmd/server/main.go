package main

import (
	"flag"
	"os"

	"github.com/charmbracelet/log"

	"github.com/meisai-dev/meisai/pkg/config"
	"github.com/meisai-dev/meisai/pkg/importer"
	"github.com/meisai-dev/meisai/pkg/parser"
	"github.com/meisai-dev/meisai/pkg/server"
	"github.com/meisai-dev/meisai/pkg/store"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "meisai",
	})

	cfgFile := flag.String("config", "", "Config file (default is config.yaml)")
	flag.Parse()

	cfg, err := config.Build(*cfgFile, nil)
	if err != nil {
		logger.Fatal("failed to load config", "err", err)
	}

	st, err := store.Open(cfg.DSN, cfg.Table, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", "err", err)
	}
	defer st.Close()

	imp := importer.New(st, parser.New(logger), logger)
	srv := server.New(cfg, imp, logger)
	logger.Info("starting server", "addr", cfg.Listen)
	if err := srv.Start(cfg.Listen); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
