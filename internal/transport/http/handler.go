package http

import (
	"context"
	"fmt"
	"strings"
	"time"

	"checkers/internal/core"
	"checkers/internal/service"
	"checkers/internal/transport"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	rateLimitRate = 20 // req/sec

	// commandTimeout bounds how long a request waits on a game runner
	commandTimeout = 5 * time.Second
)

type HTTPHandler struct {
	svc *service.Service
}

func NewHTTPHandler(svc *service.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func NewFiberApp(svc *service.Service, devMode bool) *fiber.App {
	h := NewHTTPHandler(svc)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  10 * time.Second,
		// Long polls hold the response open for up to WaitTimeout
		WriteTimeout:          service.WaitTimeout + 5*time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 5
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/games", h.CreateGame)
	api.Get("/games/:gameId", h.GetGame)
	api.Delete("/games/:gameId", h.DeleteGame)
	api.Post("/games/:gameId/moves", h.MakeMove)
	api.Put("/games/:gameId/players", h.ChangePlayer)
	api.Post("/games/:gameId/restart", h.Restart)
	api.Post("/games/:gameId/highlight", h.ToggleHighlighting)
	api.Get("/games/:gameId/board", h.GetBoard)
	api.Post("/games/:gameId/saves", h.SaveGame)
	api.Get("/saves", h.ListSaves)
	api.Delete("/saves/:saveId", h.DeleteSave)

	return app
}

// contentTypeValidator ensures POST and PUT requests have application/json
func contentTypeValidator(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodPost || method == fiber.MethodPut {
		contentType := c.Get("Content-Type")
		if contentType != "" && !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(core.ErrorResponse{
				Error:   "unsupported media type",
				Code:    core.ErrInvalidContent,
				Details: "Content-Type must be application/json",
			})
		}
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// sendError writes a service or engine error with the status its code implies
func sendError(c *fiber.Ctx, err error) error {
	resp := transport.NewErrorResponse(err)
	return c.Status(statusFor(resp.Code)).JSON(resp)
}

func statusFor(code string) int {
	switch code {
	case core.ErrGameNotFound, core.ErrSaveNotFound:
		return fiber.StatusNotFound
	case core.ErrInvalidMove, core.ErrInvalidPosition, core.ErrInvalidRequest:
		return fiber.StatusBadRequest
	case core.ErrGameOver, core.ErrNotHumanTurn, core.ErrCaptureInProgress:
		return fiber.StatusConflict
	case core.ErrStorageDisabled, core.ErrUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// commandContext bounds a runner round trip for one request
func commandContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), commandTimeout)
}

func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	status := "healthy"
	storage := h.svc.GetStorageHealth()
	if storage == "degraded" {
		status = "degraded"
	}
	return c.JSON(core.HealthResponse{
		Status:  status,
		Time:    time.Now().Unix(),
		Storage: storage,
		Games:   len(h.svc.GameIDs()),
	})
}
