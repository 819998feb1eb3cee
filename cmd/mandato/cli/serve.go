package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mandatohub/mandato/internal/server"
	"github.com/mandatohub/mandato/internal/service"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Mandato API server",
		Long:  "Start the HTTP server that exposes the staff API and the public capture API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store initialized", "driver", cfg.Store.Driver)

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "mandato-dev-secret-change-me"
		logger.Warn("auth.jwt_secret not set, using development secret")
	}
	authSvc := service.NewAuthService(st, jwtSecret)

	n, err := st.CountUsers(context.Background())
	if err != nil {
		logger.Warn("failed to count users", "error", err)
	}
	if n == 0 {
		logger.Warn("no accounts found - the first registration becomes the admin, or run: mandato seed")
	}

	srvCfg := server.Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		ShutdownTimeout:    cfg.Server.ShutdownTimeout,
		CORSOrigins:        cfg.Server.CORSOrigins,
		RateLimitMax:       cfg.RateLimit.Max,
		RateLimitWindow:    cfg.RateLimit.Window,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
		AuditBuffer:        cfg.RateLimit.AuditBuffer,
	}

	srv := server.New(srvCfg, st, authSvc, logger)
	defer srv.Close()

	fmt.Printf("→ Mandato API\n")
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Staff API:  http://%s:%d/api/v1\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Public API: http://%s:%d/api/public/v1\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
