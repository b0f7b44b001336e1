package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-bridge/internal/api/http"
	"github.com/spec-kit/support-bridge/internal/api/http/handlers"
	"github.com/spec-kit/support-bridge/internal/bridge"
	"github.com/spec-kit/support-bridge/internal/config"
	"github.com/spec-kit/support-bridge/internal/events"
	"github.com/spec-kit/support-bridge/internal/observability"
	"github.com/spec-kit/support-bridge/internal/persistence"
	"github.com/spec-kit/support-bridge/internal/platform"
	"github.com/spec-kit/support-bridge/internal/repository"
	"github.com/spec-kit/support-bridge/internal/service"
	"github.com/spec-kit/support-bridge/internal/transcript"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	mappingRepo := repository.NewRoomMappingRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	transcripts := transcript.NewRedisStore(redis.Client)

	ticketService := service.NewTicketService(
		ticketRepo, messageRepo, accountRepo, dispatcher, transcripts, logger)
	service.NewNotificationService(dispatcher,
		service.NewLogNotifier(cfg.Notification, logger), logger)

	if cfg.Slack.BotToken != "" && cfg.Slack.AppToken != "" {
		chat, err := platform.NewSlack(cfg.Slack)
		if err != nil {
			logger.Fatal("failed to connect chat platform", zap.Error(err))
		}

		br := bridge.New(bridge.Dependencies{
			Platform:     chat,
			TicketRepo:   ticketRepo,
			MessageRepo:  messageRepo,
			MappingRepo:  mappingRepo,
			Dispatcher:   dispatcher,
			Logger:       logger,
			Metrics:      metrics,
			Config:       cfg.Bridge,
			ParentRoomID: cfg.Slack.SupportChannel,
			AuditRoomID:  cfg.Slack.AuditChannel,
		})
		br.RegisterHandlers()
		registerRoomCommands(dispatcher, ticketService, logger)

		listener := platform.NewSlackListener(cfg.Slack, logger, br.HandleInbound, br.HandleCommand)
		go func() {
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("platform listener stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Warn("chat platform tokens not configured, running without bridge")
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:     handlers.NewTicketsHandler(ticketService),
		Transcripts: handlers.NewTranscriptsHandler(ticketService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

// registerRoomCommands routes control-button presses from external rooms to
// the lifecycle operations. The bridge publishes the command and this wiring
// invokes the service, so neither package imports the other.
func registerRoomCommands(dispatcher events.Dispatcher, tickets *service.TicketService, logger *zap.Logger) {
	dispatcher.Subscribe(events.EventRoomCommand, func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.RoomCommandPayload)
		if !ok {
			return nil
		}

		var err error
		switch payload.Action {
		case events.RoomActionCreate:
			guestEmail := fmt.Sprintf("%s@slack.guest", payload.ActorID)
			_, err = tickets.Create(ctx, service.CreateTicketInput{
				GuestEmail:     &guestEmail,
				Subject:        "Support request",
				InitialMessage: "Ticket opened from the support channel.",
			})
		case events.RoomActionClose:
			_, err = tickets.Close(ctx, event.TicketID)
		case events.RoomActionDelete:
			_, err = tickets.Delete(ctx, event.TicketID)
		default:
			return nil
		}
		if err != nil {
			logger.Error("room command failed",
				zap.String("action", string(payload.Action)),
				zap.String("ticket_id", event.TicketID),
				zap.String("actor_id", payload.ActorID),
				zap.Error(err))
		}
		return err
	})
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
