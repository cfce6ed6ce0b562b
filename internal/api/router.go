package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	_ "github.com/99minutos/signin-portal/docs"
	"github.com/99minutos/signin-portal/internal/api/handler"
	"github.com/99minutos/signin-portal/internal/api/middleware"
	"github.com/99minutos/signin-portal/internal/api/view"
	"github.com/99minutos/signin-portal/internal/core/ports"
	"github.com/99minutos/signin-portal/internal/core/validation"
	"github.com/99minutos/signin-portal/internal/pkg/config"
)

const signOutPath = "/sign-out"

// HTTP metrics register with the default registry, which accepts them once.
var httpMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware("signin")
})

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Config *config.Config
	SignIn ports.SignInService
	Schema *validation.Schema
	Mongo  *mongo.Database
	// Redis is nil when nothing is kept in Redis.
	Redis *redis.Client
	Log   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	renderer, err := view.New()
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator(d.Schema)
	e.Renderer = renderer

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.BodyLimit("64K"))
	e.Use(httpMetrics())

	// --- Dependencies ---
	cfg := d.Config
	secure := cfg.IsProduction()
	paths := handler.Paths{SignIn: cfg.Session.SignInPath, SignOut: signOutPath, Profile: cfg.Session.ProfilePath}
	session := middleware.Session(middleware.SessionOptions{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Secure: secure,
	})
	requireUser := middleware.RequireUser(d.SignIn, paths.SignIn)
	limitSignIn := signInLimiter(cfg.RateLimit, d.Log)

	signInHandler := handler.NewSignInHandler(d.SignIn, d.Schema, paths, secure, d.Log)
	apiHandler := handler.NewSignInAPIHandler(d.SignIn, paths.Profile, secure)

	// --- Portal pages ---
	pages := e.Group("", session, middleware.HTMX())
	pages.GET(paths.SignIn, signInHandler.Show)
	pages.POST(paths.SignIn, signInHandler.Submit, limitSignIn...)
	pages.POST(paths.SignOut, signInHandler.SignOut)
	pages.GET(paths.Profile, signInHandler.Profile, requireUser)
	pages.GET("/", func(c echo.Context) error { return middleware.Redirect(c, paths.SignIn) })

	// --- JSON API ---
	v1 := e.Group("/api/v1", session)
	v1.POST("/sign-in", apiHandler.SignIn, limitSignIn...)
	v1.GET("/session", apiHandler.Session)
	v1.POST("/sign-out", apiHandler.SignOut)

	// --- Health checks (no session required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Mongo, d.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// signInLimiter caps sign-in attempts per client IP across the page and the
// JSON endpoint. It returns no middleware when the limit is off.
func signInLimiter(cfg config.RateLimitConfig, log zerolog.Logger) []echo.MiddlewareFunc {
	if cfg.SignInRate <= 0 {
		return nil
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.SignInRate),
		Burst:     cfg.SignInBurst,
		ExpiresIn: 10 * time.Minute,
	})
	return []echo.MiddlewareFunc{echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(_ echo.Context, identifier string, _ error) error {
			log.Warn().Str("client_ip", identifier).Msg("sign-in rate limit exceeded")
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many sign-in attempts, try again later")
		},
	})}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
