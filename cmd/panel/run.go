package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/panel/internal/dashboard"
	"github.com/abelbrown/panel/internal/fetch"
	"github.com/abelbrown/panel/internal/logging"
	"github.com/abelbrown/panel/internal/model"
	"github.com/abelbrown/panel/internal/order"
	"github.com/abelbrown/panel/internal/otel"
	"github.com/abelbrown/panel/internal/view"
)

func runDashboard() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file (default ~/.panel/config.yaml)")
	apiURL := fs.String("api", "", "Resource API base URL (overrides api.url)")
	fs.Parse(os.Args[1:])

	dir := dataDir()
	cfg, fixes := loadConfig(*cfgPath)
	if *apiURL != "" {
		cfg.API.URL = *apiURL
	}

	if err := logging.Init(dir, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()
	logFixes(fixes)

	events, closeEvents := openEventLog(cfg)
	defer closeEvents()
	events.Info(otel.KindStartup, "main", "panel starting")
	defer events.Info(otel.KindShutdown, "main", "panel exiting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// No API configured: serve the demo data on a loopback port.
	baseURL := cfg.API.URL
	if baseURL == "" {
		st, err := seedStore(ctx, cfg)
		if err != nil {
			fatal("Failed to prepare demo data: %v", err)
		}
		defer st.Close()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			fatal("Failed to listen: %v", err)
		}
		srv := startMockServer(ln, st, cfg)
		defer srv.stop()
		baseURL = srv.URL()
		logging.Info("embedded demo API", "url", baseURL)
	}

	client := fetch.NewClient(baseURL,
		fetch.WithTimeout(cfg.API.Timeout),
		fetch.WithLogger(events),
	)

	sources := make(map[dashboard.Resource]view.Source, len(dashboard.Resources))
	for _, res := range dashboard.Resources {
		st := model.NewStore(string(res), events)
		defer st.Close()
		sources[res] = view.Source{Store: st, Fetcher: client.Fetcher(res)}
	}

	var customersSort order.Spec
	if cfg.View.CustomersSort != "" {
		customersSort, _ = order.Parse(cfg.View.CustomersSort) // validated by loadConfig
	}

	var shells dashboard.ShellProvider
	app := view.New(view.Options{
		Sources:       sources,
		Shell:         shells.Get(),
		PageSize:      cfg.View.PageSize,
		MatchMode:     cfg.MatchMode(),
		FieldPolicy:   cfg.FieldPolicy(),
		CustomersSort: customersSort,
		Log:           events,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())

	logging.Info("Starting UI", "api", baseURL, "session", events.SessionID())
	if _, err := p.Run(); err != nil {
		logging.Error("Application error", "error", err)
		fatal("Error: %v", err)
	}
	logging.Info("panel exiting normally")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
