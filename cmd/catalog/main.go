package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"FileCatalog/internal/auth"
	"FileCatalog/internal/catalog"
	"FileCatalog/internal/config"
	"FileCatalog/pkg/kit"
)

const service = "catalog"

func main() {
	configFile := flag.String("config", "config.yaml", "path to the YAML config file")
	envFile := flag.String("env", ".env", "path to the .env file")
	hash := flag.String("hash-password", "", "print the bcrypt hash of the given password and exit")
	flag.Parse()

	if *hash != "" {
		h, err := auth.HashPassword(*hash)
		if err != nil {
			fmt.Fprintln(os.Stderr, "hash password:", err)
			os.Exit(1)
		}
		fmt.Println(h)
		return
	}

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := kit.NewLogger(service, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := catalog.NewFileStore(cfg.Store.Path,
		catalog.WithLogger(log.Named("store")),
		catalog.WithRegisterer(reg),
	)

	if cfg.Auth.AdminPasswordHash == "" {
		log.Warn("auth.admin_password_hash is empty, catalog is read-only until it is set")
	}

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
		Auth: &auth.Server{
			Log:      log.Named("auth"),
			Admin:    auth.NewAdmin(cfg.Auth.AdminUser, cfg.Auth.AdminPasswordHash),
			JWT:      auth.NewTokenMaker(cfg.Auth.JWTSecret),
			TokenTTL: cfg.Auth.TokenTTL,
		},
		LoginLimitPerMin:  cfg.Auth.LoginLimitPerMin,
		TrustForwardedFor: cfg.Server.TrustForwardedFor,
	})

	if err := kit.RunHTTPServer(cfg.Addr(), h, log, kit.ServerOptions{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
