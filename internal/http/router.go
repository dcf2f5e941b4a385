package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jw6ventures/punchclock/internal/auth"
	"github.com/jw6ventures/punchclock/internal/config"
	"github.com/jw6ventures/punchclock/internal/http/ratelimit"
	"github.com/jw6ventures/punchclock/internal/metrics"
	"github.com/jw6ventures/punchclock/internal/store"
	"github.com/jw6ventures/punchclock/internal/timeclock"
)

// ClockService records clock transitions.
type ClockService interface {
	Record(ctx context.Context, id string, timeMs int64, clockingIn bool) error
}

// UserDirectory resolves users for the kiosk lookups.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*store.User, error)
	FindByName(ctx context.Context, name string) (*store.User, error)
}

type LoggedInView interface {
	LoggedInUsers(ctx context.Context) (map[string]string, error)
}

// AdminService is the administrative surface over the ledger.
type AdminService interface {
	VoidLastClock(ctx context.Context, id string) error
	ResetAllHours(ctx context.Context) error
	EditUser(ctx context.Context, id string, changes timeclock.UserChanges) (*store.User, error)
	AddUser(ctx context.Context, id, name, email string) (*store.User, error)
	RemoveUser(ctx context.Context, id string) error
	AllUsers(ctx context.Context) ([]timeclock.UserSummary, error)
	UserHistory(ctx context.Context, id string) ([]store.ClockEvent, error)
}

// CredentialService manages API logins and guards routes.
type CredentialService interface {
	AddCredential(ctx context.Context, level store.AccessLevel, username, password string) error
	RemoveCredential(ctx context.Context, username string) error
	ListCredentials(ctx context.Context) ([]auth.CredentialInfo, error)
	RequireAccess(required store.AccessLevel) func(http.Handler) http.Handler
	Identify(next http.Handler) http.Handler
}

// HealthCheck is one dependency probed by /readyz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps carries everything the router serves.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Clock       ClockService
	Users       UserDirectory
	LoggedIn    LoggedInView
	Admin       AdminService
	Credentials CredentialService
	Checks      []HealthCheck
	Now         func() time.Time
}

type server struct {
	Deps
}

// Router serves every HTTP route and owns the per-client rate limiters.
type Router struct {
	http.Handler
	limiters []*ratelimit.IPRateLimiter
}

// Close stops the rate limiters' cleanup goroutines.
func (rt *Router) Close() {
	for _, l := range rt.limiters {
		l.Close()
	}
}

// NewRouter wires all HTTP routes. Callers must Close the result.
func NewRouter(d Deps) *Router {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	s := &server{Deps: d}
	r := chi.NewRouter()

	// Kiosks clock whole teams in at once: 10 requests per second, burst of 30.
	clockRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(10), 30, 5*time.Minute, d.Config.TrustedProxies)
	// Admin endpoints: 5 requests per second, burst of 10
	adminRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, d.Config.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.ready)

	if d.Config.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.With(d.Credentials.Identify).Get("/authtest", s.authTest)

	r.Route("/clockapi", func(r chi.Router) {
		r.Use(clockRateLimiter.Middleware())
		r.Use(d.Credentials.RequireAccess(store.AccessTimeclock))
		r.Post("/clock", s.clock)
		r.Get("/name", s.nameForID)
		r.Get("/id", s.idForName)
	})

	r.Route("/timesheet", func(r chi.Router) {
		if d.Config.SecureTimesheet {
			r.Use(d.Credentials.RequireAccess(store.AccessTimesheet))
		}
		r.Get("/loggedin", s.loggedIn)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminRateLimiter.Middleware())
		r.Use(d.Credentials.RequireAccess(store.AccessAdmin))
		r.Post("/addcredential", s.addCredential)
		r.Post("/removecredential", s.removeCredential)
		r.Get("/allcredentials", s.allCredentials)
		r.Post("/adduser", s.addUser)
		r.Post("/removeuser", s.removeUser)
		r.Post("/edituser", s.editUser)
		r.Get("/allusers", s.allUsers)
		r.Get("/userhistory", s.userHistory)
		r.Post("/reset", s.reset)
		r.Post("/voidclock", s.voidClock)
	})

	return &Router{Handler: r, limiters: []*ratelimit.IPRateLimiter{clockRateLimiter, adminRateLimiter}}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
