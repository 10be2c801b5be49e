package router

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pomotodo/internal/handler"
	"pomotodo/internal/middleware"
	"pomotodo/internal/repository"
	"pomotodo/internal/service"
)

func New(
	timerHandler *handler.TimerHandler,
	sessionHandler *handler.SessionHandler,
	todoHandler *handler.TodoHandler,
	corsOrigins []string,
	logger *slog.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	timer := api.Group("/timer")
	timer.GET("", timerHandler.Get)
	timer.PUT("", timerHandler.Put)

	sessions := api.Group("/sessions")
	sessions.GET("", sessionHandler.List)
	sessions.POST("", sessionHandler.Open)
	sessions.PATCH("/:id/complete", sessionHandler.Complete)

	todos := api.Group("/todos")
	todos.GET("", todoHandler.List)
	todos.POST("", todoHandler.Create)
	todos.PATCH("/:id", todoHandler.Update)
	todos.DELETE("/:id", todoHandler.Delete)
	todos.POST("/:id/pomodoro", todoHandler.IncrementPomodoro)

	return engine
}

// Build wires repositories, services and handlers over one database.
func Build(database *sql.DB, clock service.Clock, corsOrigins []string, logger *slog.Logger) *gin.Engine {
	timerRepo := repository.NewTimerRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	todoRepo := repository.NewTodoRepository(database)

	timerService := service.NewTimerService(timerRepo, clock, logger)
	sessionService := service.NewSessionService(sessionRepo, clock, logger)
	todoService := service.NewTodoService(todoRepo, timerRepo, clock, logger)

	return New(
		handler.NewTimerHandler(timerService),
		handler.NewSessionHandler(sessionService),
		handler.NewTodoHandler(todoService),
		corsOrigins,
		logger,
	)
}
