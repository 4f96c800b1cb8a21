package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/abelbrown/panel/internal/logging"
)

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Config file (default ~/.panel/config.yaml)")
	addr := fs.String("addr", "", "Listen address (overrides mock.addr)")
	records := fs.Int("n", 0, "Customers to generate (overrides mock.records)")
	fs.Parse(os.Args[1:])

	cfg, fixes := loadConfig(*cfgPath)
	logging.InitWriter(os.Stderr, cfg.Log.Level)
	logFixes(fixes)
	if *addr != "" {
		cfg.Mock.Addr = *addr
	}
	if *records > 0 {
		cfg.Mock.Records = *records
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := seedStore(ctx, cfg)
	if err != nil {
		fatal("Failed to prepare demo data: %v", err)
	}
	defer st.Close()

	ln, err := net.Listen("tcp", cfg.Mock.Addr)
	if err != nil {
		fatal("Failed to listen on %s: %v", cfg.Mock.Addr, err)
	}
	srv := startMockServer(ln, st, cfg)
	logging.Info("serving demo API", "url", srv.URL(), "latency", cfg.Mock.Latency)

	<-ctx.Done()
	logging.Info("shutting down")
	srv.stop()
}
