package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"parkspot/internal/auth"
	"parkspot/internal/config"
	"parkspot/internal/handler"
	"parkspot/internal/realtime"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth     *handler.AuthHandler
	Spots    *handler.SpotHandler
	Bookings *handler.BookingHandler
	Users    *handler.UserHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	jwtService *auth.JWTService,
	hub *realtime.Hub,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(echo.WrapMiddleware(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}).Handler))

	e.Validator = handler.NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/parking-spots", h.Spots.ListSpots)
	api.GET("/parking-spots/:id", h.Spots.GetSpot)
	if hub != nil {
		api.GET("/ws/spots", echo.WrapHandler(hub))
	}

	// Secured routes (require a bearer token)
	secured := api.Group("", auth.Middleware(jwtService))

	secured.GET("/me", h.Users.Me)

	secured.POST("/parking-spots", h.Spots.CreateSpot)
	secured.PUT("/parking-spots/:id", h.Spots.UpdateSpot)
	secured.PATCH("/parking-spots/:id/availability", h.Spots.SetAvailability)
	secured.GET("/my-spots", h.Spots.ListMySpots)

	secured.POST("/bookings", h.Bookings.CreateBooking)
	secured.GET("/bookings/my", h.Bookings.ListMyBookings)
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				log.Error("request failed", append(fields, zap.Error(v.Error))...)
			case v.Error != nil:
				log.Info("request rejected", append(fields, zap.Error(v.Error))...)
			default:
				log.Info("request", fields...)
			}
			return nil
		},
	})
}
