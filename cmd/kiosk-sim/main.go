package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ivey1207/supperapp/internal/kioskclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Payment amounts go out as JSON numbers, like the firmware sends them.
	decimal.MarshalJSONWithoutQuotes = true

	configPath := flag.String("config", "", "Path to config file")
	cash := flag.String("cash", "", "insert this much cash once at startup")
	flag.Parse()

	cfg, err := kioskclient.LoadConfig(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting kiosk simulator",
		zap.String("backend", cfg.BackendURL),
		zap.String("device_id", cfg.DeviceID),
	)

	client := kioskclient.NewClient(kioskclient.ClientConfig{
		BackendURL: cfg.BackendURL,
		DeviceID:   cfg.DeviceID,
		AgentToken: cfg.AgentToken,
		Timeout:    cfg.RequestTimeout,
		Logger:     logger,
	})
	sim := kioskclient.NewSimulator(client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *cash != "" {
		insertCash(ctx, logger, client, sim, cfg.DeviceID, *cash)
	}

	ticker := time.NewTicker(cfg.HeartbeatInterval)
	defer ticker.Stop()

	logger.Info("heartbeat loop started", zap.Duration("interval", cfg.HeartbeatInterval))

	tick(ctx, logger, sim)
	for {
		select {
		case <-ticker.C:
			tick(ctx, logger, sim)
		case <-ctx.Done():
			logger.Info("kiosk simulator stopped")
			return
		}
	}
}

func tick(ctx context.Context, logger *zap.Logger, sim *kioskclient.Simulator) {
	n, err := sim.Tick(ctx)
	if err != nil {
		// Keep polling; the backend may come back.
		logger.Warn("heartbeat failed", zap.Error(err))
		return
	}
	if n == 0 {
		return
	}
	st := sim.State()
	logger.Info("kiosk state",
		zap.String("balance", st.Balance.String()),
		zap.Bool("running", st.Running),
		zap.Bool("paused", st.Paused),
		zap.String("session_id", st.SessionID),
	)
}

func insertCash(ctx context.Context, logger *zap.Logger, client *kioskclient.Client, sim *kioskclient.Simulator, macID, raw string) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		logger.Warn("invalid cash amount", zap.String("value", raw))
		return
	}
	res, err := client.RegisterPayment(ctx, kioskclient.PaymentRequest{
		MacID:       macID,
		PaymentType: "CASH",
		Amount:      amount,
		Description: "Simulator cash insert",
	})
	if err != nil {
		logger.Warn("cash payment failed", zap.Error(err))
		return
	}
	sim.AcceptCash(amount)
	logger.Info("cash payment registered",
		zap.String("transaction_id", res.TransactionID),
		zap.String("kiosk_balance", res.KioskBalance.String()),
	)
}

func initLogger(level string) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		lvl,
	)
	return zap.New(core, zap.AddCaller())
}
