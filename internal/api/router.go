package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/haphazard/site/docs"
	"github.com/haphazard/site/internal/api/handler"
	"github.com/haphazard/site/internal/api/middleware"
	"github.com/haphazard/site/internal/api/web"
	"github.com/haphazard/site/internal/core/forms"
	"github.com/haphazard/site/internal/core/ports"
	"github.com/haphazard/site/internal/core/session"
	"github.com/haphazard/site/internal/infrastructure/http/handlers"
)

const eventsPath = "/dashboard/events"

// Dependencies is everything the router wires into handlers.
type Dependencies struct {
	Log      zerolog.Logger
	Sessions *session.Registry
	Pricing  ports.PricingService
	Waitlist ports.WaitlistService
	// Health lists the dependencies checked by the readiness endpoint.
	Health map[string]handlers.Pinger
	// Metrics receives the HTTP metrics and backs /metrics. Nil means the
	// default Prometheus registry.
	Metrics *prometheus.Registry

	CookieName    string
	CookieSecure  bool
	SessionTTL    time.Duration
	GuardInitWait time.Duration
	ConvertKitUID string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = web.MustRenderer()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.Secure())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "haphazard_http",
		Registerer: registerer(deps.Metrics),
	}))

	// --- Health checks, metrics and docs (no session) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer(deps.Metrics),
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Dependencies ---
	sess := middleware.Session(deps.Sessions, middleware.SessionConfig{
		CookieName: deps.CookieName,
		Secure:     deps.CookieSecure,
		TTL:        deps.SessionTTL,
	})
	csrf := echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "form:_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   deps.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	})
	pageGate := middleware.RequireSession(middleware.GateOptions{
		SignInPath:  forms.SignInPath,
		InitialWait: deps.GuardInitWait,
	})
	apiGate := middleware.RequireSession(middleware.GateOptions{
		SignInPath:  forms.SignInPath,
		API:         true,
		InitialWait: deps.GuardInitWait,
	})

	authHandler := handler.NewAuthHandler(deps.Log)
	pagesHandler := handler.NewPagesHandler(deps.Pricing, deps.Sessions, eventsPath)
	sessionHandler := handler.NewSessionHandler(forms.SignInPath, 0, deps.Log)
	waitlistHandler := handler.NewWaitlistHandler(deps.Waitlist, deps.ConvertKitUID)
	pricingHandler := handler.NewPricingHandler(deps.Pricing)

	// --- Site pages ---
	site := e.Group("", sess, csrf)
	site.GET("/", pagesHandler.Home)
	site.GET("/waiting-list", waitlistHandler.Page)
	site.POST("/waiting-list", waitlistHandler.Join)
	site.GET(forms.SignInPath, authHandler.SignInPage)
	site.POST(forms.SignInPath, authHandler.SignIn)
	site.GET("/sign-up", authHandler.SignUpPage)
	site.POST("/sign-up", authHandler.SignUp)
	site.POST("/sign-out", authHandler.SignOut)
	site.GET(eventsPath, sessionHandler.Events)

	dashboard := site.Group(forms.DashboardPath, pageGate)
	dashboard.GET("", pagesHandler.Dashboard)
	dashboard.GET("/*", pagesHandler.Dashboard)

	// --- JSON API ---
	api := e.Group("/api", sess, middleware.RequireJSON())
	api.GET("/session", sessionHandler.Snapshot)
	api.GET("/me", sessionHandler.Me, apiGate)
	api.POST("/auth/sign-in", authHandler.APISignIn)
	api.POST("/auth/sign-up", authHandler.APISignUp)
	api.POST("/auth/sign-out", authHandler.APISignOut)
	api.GET("/pricing", pricingHandler.Quote)
	api.POST("/waitlist", waitlistHandler.APIJoin)

	return e
}

// requestLogger feeds echo's request logger into zerolog.
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
				ev = log.Error().Err(v.Error)
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

func registerer(r *prometheus.Registry) prometheus.Registerer {
	if r == nil {
		return prometheus.DefaultRegisterer
	}
	return r
}

func gatherer(r *prometheus.Registry) prometheus.Gatherer {
	if r == nil {
		return prometheus.DefaultGatherer
	}
	return r
}
