package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/kodipay/kodipay/internal/config"
	"github.com/kodipay/kodipay/internal/database"
	"github.com/kodipay/kodipay/internal/export"
	"github.com/kodipay/kodipay/internal/fraud"
	fraudStore "github.com/kodipay/kodipay/internal/fraud/store"
	kodipayHttp "github.com/kodipay/kodipay/internal/http"
	fraudHandler "github.com/kodipay/kodipay/internal/http/fraud"
	leaseHandler "github.com/kodipay/kodipay/internal/http/lease"
	paymentHandler "github.com/kodipay/kodipay/internal/http/payment"
	statementHandler "github.com/kodipay/kodipay/internal/http/statement"
	unitHandler "github.com/kodipay/kodipay/internal/http/unit"
	"github.com/kodipay/kodipay/internal/lease"
	leaseStore "github.com/kodipay/kodipay/internal/lease/store"
	"github.com/kodipay/kodipay/internal/mpesa"
	"github.com/kodipay/kodipay/internal/notify"
	notifyStore "github.com/kodipay/kodipay/internal/notify/store"
	"github.com/kodipay/kodipay/internal/payment"
	paymentStore "github.com/kodipay/kodipay/internal/payment/store"
	"github.com/kodipay/kodipay/internal/statement"
	statementStore "github.com/kodipay/kodipay/internal/statement/store"
	"github.com/kodipay/kodipay/internal/unit"
	unitStore "github.com/kodipay/kodipay/internal/unit/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gateway := mpesa.NewClient(mpesa.Config{
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		ShortCode:      cfg.Mpesa.ShortCode,
		Passkey:        cfg.Mpesa.Passkey,
		CallbackURL:    cfg.Mpesa.CallbackURL,
		Environment:    cfg.Mpesa.Environment,
	})

	var notifier notify.Notifier = notify.NewLog()
	if cfg.SMSEnabled() {
		notifier = notify.NewSMS(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, notifyStore.New(db))
	}

	var (
		scorer           = fraud.NewScorer(fraudStore.New(db))
		paymentService   = payment.NewService(paymentStore.New(db), gateway, scorer, notifier)
		leaseService     = lease.NewService(leaseStore.New(db), notifier)
		unitService      = unit.NewService(unitStore.New(db))
		statementService = statement.NewService(statementStore.New(db), paymentService)
		exportService    = export.NewService(paymentService)
	)

	var (
		paymentH   = paymentHandler.NewHandler(paymentService, exportService)
		leaseH     = leaseHandler.NewHandler(leaseService)
		unitH      = unitHandler.NewHandler(unitService)
		fraudH     = fraudHandler.NewHandler(scorer)
		statementH = statementHandler.NewHandler(statementService)
	)

	router := kodipayHttp.New(cfg.Auth.JWTSecret, paymentH, leaseH, unitH, fraudH, statementH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
