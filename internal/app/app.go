package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/mochabot/chatcart/internal/bot"
	"github.com/mochabot/chatcart/internal/catalog"
	"github.com/mochabot/chatcart/internal/chat"
	"github.com/mochabot/chatcart/internal/domain/cart"
	"github.com/mochabot/chatcart/internal/domain/menu"
	"github.com/mochabot/chatcart/internal/domain/order"
	"github.com/mochabot/chatcart/internal/handler"
	"github.com/mochabot/chatcart/internal/sheets"
	"github.com/mochabot/chatcart/internal/storage/postgres"
	"github.com/mochabot/chatcart/pkg/health"
	"github.com/mochabot/chatcart/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Menu catalog and order sinks: Postgres when configured, with the CSV
	// menu as the fallback source.
	var (
		menuCatalog menu.Catalog
		writers     order.MultiWriter
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
			return pool.Ping(ctx)
		})

		menuCatalog = postgres.NewMenuRepository(pool)
		writers = append(writers, postgres.NewOrderArchive(pool))
	} else {
		mem, err := catalog.LoadFile(cfg.MenuPath)
		if err != nil {
			return errors.Wrap(err, "load menu")
		}
		menuCatalog = mem
	}
	if cfg.Sheet.URL != "" {
		writers = append(writers, sheets.NewWriter(sheets.Config{
			URL:     cfg.Sheet.URL,
			Token:   cfg.Sheet.Token,
			Timeout: cfg.Sheet.Timeout,
		}))
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// The menu context prompt is computed once at startup; the catalog is
	// read-only for the process lifetime.
	items, err := menuCatalog.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list menu")
	}
	lg.Info("Menu loaded", zap.Int("items", len(items)))

	completer := chat.NewClient(chat.ClientConfig{
		BaseURL: cfg.Chat.BaseURL,
		APIKey:  cfg.Chat.APIKey,
		Model:   cfg.Chat.Model,
		Timeout: cfg.Chat.Timeout,
		SystemPrompts: []string{
			"你是一個線上咖啡廳點餐助手",
			"answer the question considering the following data: " + chat.MenuPrompt(items),
			"當客人點餐時，請務必回復品項和數量，例如：'好的，你點的是一杯美式，價格是50元。請問還需要為您添加其他的餐點或飲品嗎？'",
		},
	})

	// Domain services.
	carts := cart.NewStore(menuCatalog)
	orders := order.NewService(carts, writers)
	botSvc := bot.NewService(carts, orders, completer, bot.DefaultExtractor())

	// HTTP handlers.
	webhook := handler.NewWebhook(botSvc, handler.NewHTTPReplier(handler.ReplierConfig{
		URL:     cfg.Messaging.ReplyURL,
		Token:   cfg.Messaging.Token,
		Timeout: cfg.Messaging.Timeout,
	}))

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.HandleFunc("/callback", webhook.Callback)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("chatcart", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
