package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tella/app/internal/audit"
	auditrepo "tella/app/internal/audit/repository"
	"tella/app/internal/billing"
	billinghandler "tella/app/internal/billing/handler"
	"tella/app/internal/bootstrap"
	"tella/app/internal/config"
	"tella/app/internal/db"
	identityhandler "tella/app/internal/identity/handler"
	identityrepo "tella/app/internal/identity/repository"
	identityservice "tella/app/internal/identity/service"
	"tella/app/internal/mail"
	"tella/app/internal/passreset"
	profilehandler "tella/app/internal/profile/handler"
	profilerepo "tella/app/internal/profile/repository"
	profileservice "tella/app/internal/profile/service"
	"tella/app/internal/security"
	"tella/app/internal/server"
	"tella/app/internal/server/middleware"
	sessionrepo "tella/app/internal/session/repository"
	"tella/app/internal/telemetry"
	"tella/app/internal/telemetry/otel"
	userrepo "tella/app/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.JWTPrivateKey == "" || cfg.JWTPublicKey == "" {
		log.Fatal("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set; see scripts/genkeys.sh")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "tella-api", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	priv, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer sqlDB.Close()

	users := userrepo.NewPostgresRepository(sqlDB)
	identities := identityrepo.NewPostgresRepository(sqlDB)
	sessions := sessionrepo.NewPostgresRepository(sqlDB)
	profiles := profilerepo.NewPostgresRepository(sqlDB)
	auditor := audit.NewLogger(auditrepo.NewPostgresRepository(sqlDB), middleware.ClientIPFromContext)

	var mailer mail.Sender = mail.Nop{}
	if cfg.MailAPIKey != "" && cfg.MailAPIBaseURL != "" {
		mailer = mail.NewClient(cfg.MailAPIKey, cfg.MailAPIBaseURL, cfg.MailFrom)
	} else {
		logger.Warn("mail provider not configured, password reset mails will be logged only")
	}

	authSvc := identityservice.NewAuthService(
		users,
		identities,
		sessions,
		security.NewHasher(cfg.BcryptCost),
		tokens,
		passreset.NewMemoryStore(passreset.DefaultTTL),
		mailer,
		auditor,
		cfg.RefreshTTL(),
		cfg.ResetLinkBase,
	)
	profileSvc := profileservice.NewService(profiles, auditor)
	billingSvc := billing.NewMock(cfg.BillingLatency(), logger)
	emitter := otel.NewEventEmitter(providers.LoggerProvider)

	router := server.NewRouter(server.Deps{
		Log:               logger,
		Tokens:            tokens,
		Identity:          identityhandler.New(authSvc, profileSvc, emitter, logger),
		Profile:           profilehandler.New(profileSvc, emitter, logger),
		Billing:           billinghandler.New(billingSvc, profileSvc, logger),
		Bootstrap:         bootstrap.NewHandler(bootstrap.NewService(profiles, logger)),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
	})
	srv := server.New(cfg.HTTPAddr, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("serve: %v", err)
		}
		return
	case <-quit:
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}

	// In-flight async telemetry emits get a grace period before the
	// providers flush and close.
	time.Sleep(telemetry.ShutdownDrainDuration)
	otelCtx, otelCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer otelCancel()
	if err := providers.Shutdown(otelCtx); err != nil {
		logger.Error("otel shutdown", "error", err)
	}
	logger.Info("http server stopped")
}
