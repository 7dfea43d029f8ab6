package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ismaelmkumbi/smarttaxchain-sub004/api/server"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/assessment"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/audit"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/auth"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/chain"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/config"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/genesis"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/metrics"
	"github.com/ismaelmkumbi/smarttaxchain-sub004/core/taxops"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	log := cfg.Logger()
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ledgerOpts := []chain.Option{chain.WithLogger(log), chain.WithMetrics(m)}
	if cfg.GenesisConfig != "" {
		gcfg, err := genesis.LoadConfig(cfg.GenesisConfig)
		if err != nil {
			log.Error("Failed to load genesis config", "path", cfg.GenesisConfig, "error", err)
			os.Exit(1)
		}
		g, err := genesis.FromConfig(gcfg)
		if err != nil {
			log.Error("Failed to build genesis block", "error", err)
			os.Exit(1)
		}
		ledgerOpts = append(ledgerOpts, chain.WithGenesis(g))
	}
	ledger := chain.NewLedger(ledgerOpts...)
	store := assessment.NewStore(assessment.WithLogger(log), assessment.WithMetrics(m))

	auditLog := audit.NewSlogAuditLogger(log)
	recorder := taxops.NewRecorder(ledger, store, taxops.WithLogger(log), taxops.WithAuditLogger(auditLog))

	opts := []server.Option{
		server.WithLogger(log),
		server.WithGatherer(reg),
		server.WithDemoTimeline(cfg.DemoTimeline),
		server.WithTimeouts(cfg.ReadTimeout, cfg.WriteTimeout),
	}
	if cfg.AuthEnabled() {
		opts = append(opts, server.WithAuthorizer(&auth.Authorizer{
			Verifier:    &auth.TokenVerifier{KeyProvider: auth.StaticKeyProvider{Secret: []byte(cfg.JWTSecret)}},
			AuditLogger: auditLog,
		}))
	} else {
		log.Warn("TAXCHAIN_JWT_SECRET is not set, mutating routes are unauthenticated")
	}
	srv := server.NewServer(ledger, store, recorder, cfg.Addr(), opts...)

	log.Info("Starting TaxChain node",
		"version", server.NodeVersion(),
		"genesis", ledger.Tail().Hash,
		"demoTimeline", cfg.DemoTimeline)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Start(ctx); err != nil {
		log.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
