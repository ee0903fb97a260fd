package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"w3watch/internal/app"
	"w3watch/internal/config"
	"w3watch/internal/logger"
	"w3watch/internal/metrics"
	"w3watch/internal/telegram"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.SetDebug(cfg.Debug)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// One-shot manual push, for cron jobs and smoke tests.
	if len(os.Args) > 1 && os.Args[1] == "push" {
		if err := a.PushLatest(ctx); err != nil {
			logger.Error("manual push failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer(ctx, a, cfg)
	}

	run(ctx, a, cfg.RefreshInterval)
}

func run(ctx context.Context, a *app.App, interval time.Duration) {
	// First cycle right away, then on the ticker.
	a.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			a.Refresh(ctx)
		}
	}
}

func startMonitoringServer(ctx context.Context, a *app.App, cfg *config.Config) {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/metrics", metricsHandler)
	mux.HandleFunc("/api/security", func(w http.ResponseWriter, r *http.Request) {
		securityHandler(w, r, a)
	})
	if cfg.ForwardChatID != "" {
		mux.HandleFunc("/api/telegram/webhook", func(w http.ResponseWriter, r *http.Request) {
			webhookHandler(w, r, cfg)
		})
	}

	server := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("monitoring server listening", "port", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_push":  stats["last_push_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}

// webhookHandler forwards incoming Telegram updates to the configured work
// chat. Messages originating from the forward target itself are ignored so
// the bot never loops on its own forwards.
func webhookHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if cfg.WebhookSecret != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != cfg.WebhookSecret {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	info, ok := telegram.ExtractMessageInfo(body)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "no message in update"})
		return
	}

	if info.FromChatID == cfg.ForwardChatID {
		logger.Info("update from forward target, ignoring to avoid loops")
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "ignored": true})
		return
	}

	if err := telegram.ForwardMessage(r.Context(), cfg.TelegramToken, info.FromChatID, info.MessageID, cfg.ForwardChatID); err != nil {
		logger.Error("webhook forward failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "forward failed"})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// securityHandler serves the latest cached snapshot, optionally filtered by
// category via ?category=.
func securityHandler(w http.ResponseWriter, r *http.Request, a *app.App) {
	items, ok := a.CachedSnapshot(r.Context())
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "no snapshot available yet"})
		return
	}

	category := r.URL.Query().Get("category")
	if category != "" {
		filtered := items[:0]
		for _, it := range items {
			if string(it.Category) == category {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":    len(items),
		"category": category,
		"items":    items,
	})
}
