package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/meisai-dev/meisai/pkg/config"
	"github.com/meisai-dev/meisai/pkg/importer"
	"github.com/meisai-dev/meisai/pkg/parser"
	"github.com/meisai-dev/meisai/pkg/plan"
	"github.com/meisai-dev/meisai/pkg/server"
	"github.com/meisai-dev/meisai/pkg/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "meisai",
	Short: "Import credit card statement exports into the ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var importCmd = &cobra.Command{
	Use:   "import [flags] <path>",
	Short: "Import a statement file or a directory of exports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		path := args[0]
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			return dumpRecords(logger, path, info.IsDir(), cfg.Service)
		}

		st, err := store.Open(cfg.DSN, cfg.Table, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		imp := importer.New(st, parser.New(logger), logger)

		if info.IsDir() {
			summary, err := imp.ImportDir(cmd.Context(), path, cfg.Service)
			if err != nil {
				return err
			}
			fmt.Printf("inserted=%d skipped=%d failed=%d\n",
				summary.Inserted, summary.Skipped, summary.Failed)
			if summary.Failed > 0 {
				return fmt.Errorf("%d file(s) failed", summary.Failed)
			}
			return nil
		}

		result := imp.ImportFile(cmd.Context(), path, cfg.Service)
		if result.Err != nil {
			return result.Err
		}
		fmt.Printf("%s: %s (%d records)\n", result.File, result.Status, result.Inserted)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <plan_file>",
	Short: "Run every import listed in a YAML plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Plan for %s\n", args[0])
		p.Print()

		st, err := store.Open(cfg.DSN, cfg.Table, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		imp := importer.New(st, parser.New(logger), logger)

		var inserted, skipped, failed int
		for _, item := range p.Imports {
			info, err := os.Stat(item.Path)
			if err != nil {
				logger.Error("plan entry not found", "path", item.Path, "error", err)
				failed++
				continue
			}
			if info.IsDir() {
				summary, err := imp.ImportDir(cmd.Context(), item.Path, item.Service)
				if err != nil {
					logger.Error("failed to import directory", "path", item.Path, "error", err)
					failed++
					continue
				}
				inserted += summary.Inserted
				skipped += summary.Skipped
				failed += summary.Failed
				continue
			}
			result := imp.ImportFile(cmd.Context(), item.Path, item.Service)
			switch result.Status {
			case importer.StatusImported:
				inserted += result.Inserted
			case importer.StatusSkipped:
				skipped++
			case importer.StatusFailed:
				logger.Error("failed to import file", "file", result.File, "error", result.Err)
				failed++
			}
		}

		fmt.Printf("inserted=%d skipped=%d failed=%d\n", inserted, skipped, failed)
		if failed > 0 {
			return fmt.Errorf("%d import(s) failed", failed)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the import API over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger(cmd)
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DSN, cfg.Table, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		imp := importer.New(st, parser.New(logger), logger)
		srv := server.New(cfg, imp, logger)
		logger.Info("starting server", "addr", cfg.Listen)
		return srv.Start(cfg.Listen)
	},
}

// dumpRecords parses without touching the database and pretty-prints what
// would be inserted.
func dumpRecords(logger *log.Logger, path string, isDir bool, service string) error {
	p := parser.New(logger)

	paths := []string{path}
	if isDir {
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		paths = paths[:0]
		for _, entry := range entries {
			name := strings.ToLower(entry.Name())
			if entry.IsDir() || (!strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, ".xls")) {
				continue
			}
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
		sort.Strings(paths)
	}

	for _, file := range paths {
		records, err := p.ParseFile(file, service)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d record(s)\n", filepath.Base(file), len(records))
		for _, r := range records {
			pp.Printf("%v\n", map[string]any{
				"used_at": r.UsedAt().Format("2006-01-02"),
				"store":   r.Store(),
				"price":   r.Price(),
				"payment": r.Payment(),
				"note":    r.Note(),
				"card":    r.CardNumber(),
			})
		}
	}
	return nil
}

func newLogger(cmd *cobra.Command) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "meisai",
	})
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("dsn", "root@tcp(localhost:3306)/meisai?parseTime=true", "MySQL DSN")
	rootCmd.PersistentFlags().String("table", "credit_histories", "Ledger table name")
	rootCmd.PersistentFlags().String("service", "vpass", "Statement source tag")
	rootCmd.PersistentFlags().String("dir", "data", "Default statement directory")
	rootCmd.PersistentFlags().String("listen", "0.0.0.0:3000", "Server listen address")

	importCmd.Flags().Bool("dry-run", false, "Parse and print records without writing to the database")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
