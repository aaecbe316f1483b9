package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/SebasTaclar/appstorepro-back/internal/config"
	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/cache"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/email"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/payment"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/persistence/mysql"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/security"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/stream"
	httpapi "github.com/SebasTaclar/appstorepro-back/internal/interface/http"
	authuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/auth"
	purchaseuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/purchase"
	reconcileuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/reconcile"
	reportuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/report"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := mysql.Open(ctx, cfg.MySQLDSN)
	if err != nil {
		slog.Error("mysql connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := cache.NewRedisCache(cfg.RedisAddr)

	producer := stream.NewProducer(cfg.KafkaBrokers, dompurchase.TopicPurchaseEvents, cfg.ServiceName, 1024)
	producer.Start(ctx)

	purchaseRepo := mysql.NewPurchaseRepository(db)
	productRepo := mysql.NewProductRepository(db)
	detailRepo := mysql.NewOrderDetailRepository(db)

	gateway := payment.NewClient(cfg.WompiBaseURL, cfg.WompiPublicKey, cfg.WompiPrivateKey,
		cfg.WompiIntegritySecret, cfg.WompiEventsSecret, cfg.PaymentRedirectURL)
	mailer := email.NewSMTPSender(cfg.SMTPAddr, cfg.EmailFrom)
	tokens := security.NewJWTService(cfg.JWTSecret, cfg.JWTExpiration)
	passwords := security.NewBcryptService()

	purchaseSvc := purchaseuc.NewService(productRepo, purchaseRepo, gateway, producer, cfg.Currency)
	reconcileSvc := reconcileuc.NewService(purchaseRepo, productRepo, mailer, producer)
	reportSvc := reportuc.NewService(purchaseRepo, productRepo, detailRepo, mailer)
	authSvc := authuc.NewService(cfg.AdminEmail, cfg.AdminPasswordHash, passwords, tokens)

	sweeper := reconcileuc.NewSweeper(purchaseRepo, gateway, cfg.SweepInterval, cfg.SweepMinAge)
	go sweeper.Run(ctx)

	api := httpapi.NewAPI(httpapi.Dependencies{
		AuthService:      authSvc,
		PurchaseService:  purchaseSvc,
		ReconcileService: reconcileSvc,
		ReportService:    reportSvc,
		WebhookVerifier:  gateway,
		Cache:            rdb,
		TokenService:     tokens,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Router()}

	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
	producer.Close()
}
