package bootstrap

import (
	"time"

	"pdf-assistant-be/internal/config"
	"pdf-assistant-be/internal/controller"
	"pdf-assistant-be/internal/handler"
	"pdf-assistant-be/internal/pkg/logger"
	"pdf-assistant-be/internal/repository/memory"
	"pdf-assistant-be/internal/service"
	"pdf-assistant-be/internal/websocket"
	"pdf-assistant-be/pkg/pdfengine"
)

type Container struct {
	// Controllers
	SessionController controller.ISessionController

	// WebSockets
	SessionEventHandler *handler.SessionEventHandler
	WebSocketHub        *websocket.Hub

	// Exposed for shutdown
	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Infrastructure
	engineClient := pdfengine.NewClient(
		cfg.Engine.BaseURL,
		time.Duration(cfg.Engine.TimeoutSeconds)*time.Second,
	)

	sessionRepo := memory.NewSessionRepository(
		time.Duration(cfg.Session.TTLMinutes)*time.Minute,
		time.Duration(cfg.Session.PurgeMinutes)*time.Minute,
	)

	hub := websocket.NewHub(sysLogger)
	go hub.Run()

	// 3. Services
	sessionService := service.NewSessionService(sessionRepo, engineClient, hub, sysLogger)

	// 4. Controllers & Handlers
	sessionController := controller.NewSessionController(sessionService)
	sessionEventHandler := handler.NewSessionEventHandler(sessionRepo, hub, sysLogger)

	return &Container{
		SessionController:   sessionController,
		SessionEventHandler: sessionEventHandler,
		WebSocketHub:        hub,
		Logger:              sysLogger,
	}
}
