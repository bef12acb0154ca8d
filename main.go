/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Gridview Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command gridview filters, sorts, groups and summarises tables loaded from
// CSV files, and serves them over a JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/threadworks/gridview/config"
	"github.com/threadworks/gridview/core/aggregates"
	"github.com/threadworks/gridview/core/query"
	"github.com/threadworks/gridview/core/server"
	"github.com/threadworks/gridview/core/views"
	"github.com/threadworks/gridview/datasources"
	"github.com/threadworks/gridview/demo"
)

const appName = "gridview"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the persistent flags.
type options struct {
	configPath string
	logLevel   string
	logFormat  string
	demo       bool
}

// app is a loaded configuration with its tables.
type app struct {
	cfg    *config.Config
	tables []*config.Table
	logger *slog.Logger
}

func rootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Tabular view engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (default: gridview.yaml in the current or a parent directory)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (text, json); overrides the config")
	cmd.PersistentFlags().BoolVar(&opts.demo, "demo", false, "Use the built-in Trim Master demo instead of a config file")

	cmd.AddCommand(showCmd(opts), viewsCmd(opts), serveCmd(opts), demoCmd(opts))
	return cmd
}

func load(opts *options) (*app, error) {
	// Logging before the config is known goes to a provisional logger.
	boot := newLogger(opts.logLevel, opts.logFormat, config.DefaultConfig().Log)

	var cfg *config.Config
	var built []*config.Table
	var err error
	if opts.demo {
		cfg, built, err = demo.Build(boot)
	} else {
		cfg, err = config.NewLoader(boot).Load(opts.configPath)
		if err == nil {
			logger := newLogger(opts.logLevel, opts.logFormat, cfg.Log)
			built, err = config.NewLoader(logger).BuildTables(cfg, datasources.NewManager(logger))
		}
	}
	if err != nil {
		return nil, err
	}
	if len(built) == 0 {
		return nil, errors.New("no tables configured")
	}
	logger := newLogger(opts.logLevel, opts.logFormat, cfg.Log)
	slog.SetDefault(logger)
	return &app{cfg: cfg, tables: built, logger: logger}, nil
}

// table returns the named table. The name may be omitted when only one
// table is configured.
func (a *app) table(args []string) (*config.Table, error) {
	if len(args) == 0 {
		if len(a.tables) == 1 {
			return a.tables[0], nil
		}
		return nil, errors.New("several tables are configured, name one")
	}
	for _, t := range a.tables {
		if t.View.Name() == args[0] {
			return t, nil
		}
	}
	return nil, fmt.Errorf("table %q not found", args[0])
}

func showCmd(opts *options) *cobra.Command {
	var viewName, rawQuery, saveAs string
	cmd := &cobra.Command{
		Use:   "show [table]",
		Short: "Print a table as text",
		Long: `Print a table with its group headers and column summaries.

The --query flag takes the same parameters as the rows API, e.g.
  --query 'filter=status:is:Active&sort=qty_on_hand:numeric:desc&group=supplier'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(opts)
			if err != nil {
				return err
			}
			t, err := a.table(args)
			if err != nil {
				return err
			}
			if saveAs != "" {
				return a.showAndSave(cmd.OutOrStdout(), t, viewName, rawQuery, saveAs)
			}
			return a.show(cmd.OutOrStdout(), t, viewName, rawQuery)
		},
	}
	cmd.Flags().StringVar(&viewName, "view", "", "Saved view to load first")
	cmd.Flags().StringVarP(&rawQuery, "query", "q", "", "View state overrides in URL query form")
	cmd.Flags().StringVar(&saveAs, "save-view", "", "Save the shown view state under this name in the config file")
	return cmd
}

// showAndSave prints the table, then saves its live configuration as a named
// view and writes it back to the config file.
func (a *app) showAndSave(w io.Writer, t *config.Table, viewName, rawQuery, saveAs string) error {
	path := a.cfg.Path()
	if path == "" {
		return errors.New("--save-view needs a config file")
	}
	if err := a.show(w, t, viewName, rawQuery); err != nil {
		return err
	}
	if err := t.View.SaveView(saveAs); err != nil {
		return err
	}
	name := t.View.ActiveView().Name
	if err := a.cfg.PutView(t.View.Name(), name, t.View.Live()); err != nil {
		return err
	}
	if err := a.cfg.SaveToFile(path); err != nil {
		return err
	}
	a.logger.Info("Saved view", slog.String("table", t.View.Name()), slog.String("view", name), slog.String("path", path))
	fmt.Fprintf(w, "saved view %q to %s\n", name, path)
	return nil
}

func (a *app) show(w io.Writer, t *config.Table, viewName, rawQuery string) error {
	if viewName != "" {
		if err := t.View.LoadView(viewName); err != nil {
			return err
		}
	}
	if rawQuery != "" {
		q := query.NewQuery(&url.URL{RawQuery: rawQuery})
		c, err := q.ToConfig(t.View.Registry())
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		if err := t.View.SetConfig(c); err != nil {
			return err
		}
	}
	res, err := t.View.Compute(t.Records.All())
	if err != nil {
		return err
	}
	state := res.ActiveView
	if res.Dirty {
		state += " (modified)"
	}
	fmt.Fprintf(w, "%s · view %s · %d of %d rows\n", res.Table, state, res.Visible(), res.Total)
	_, err = io.WriteString(w, res.ToAscii(aggregates.NewFormatter(a.cfg.CurrencySymbol)))
	return err
}

func viewsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "views [table]",
		Short: "List the saved views of a table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(opts)
			if err != nil {
				return err
			}
			t, err := a.table(args)
			if err != nil {
				return err
			}
			printViews(cmd.OutOrStdout(), t.View.Views(), t.View.ActiveView().Name)
			return nil
		},
	}
}

func printViews(w io.Writer, list []views.View, active string) {
	for _, v := range list {
		marker := " "
		if v.Name == active {
			marker = "*"
		}
		flags := ""
		if v.Locked {
			flags = " [locked]"
		}
		q := query.FromConfig("", "", v.Config)
		fmt.Fprintf(w, "%s %s%s\t%s\n", marker, v.Name, flags, q.ToURL())
	}
}

func serveCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured tables over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(opts)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from the config)")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	srv := server.NewServer(
		server.WithLogger(a.logger),
		server.WithFormatter(aggregates.NewFormatter(a.cfg.CurrencySymbol)))
	for _, t := range a.tables {
		if err := srv.AddTable(t.View, t.Records); err != nil {
			return err
		}
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Listening", slog.String("addr", addr), slog.Int("tables", len(a.tables)))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func demoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Print every saved view of the built-in Trim Master table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			demoOpts := *opts
			demoOpts.demo = true
			a, err := load(&demoOpts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, t := range a.tables {
				for _, v := range t.View.Views() {
					if err := a.show(w, t, v.Name, ""); err != nil {
						return err
					}
					fmt.Fprintln(w)
				}
			}
			return nil
		},
	}
}
