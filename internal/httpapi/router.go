package httpapi

import (
	"net"
	"net/http"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/middleware"
	"github.com/MrEthical07/goAccount/user"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Options configures the router. Zero values are usable.
type Options struct {
	// AllowedOrigins defaults to every origin.
	AllowedOrigins []string
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
	Logger  *zap.Logger
}

// NewRouter mounts every account route on a chi router.
func NewRouter(engine *goAccount.Engine, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &Handler{engine: engine, logger: logger.Named("http")}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(requestContext)
	r.Use(accessLog(h.logger))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("API users"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Post("/sign-up", h.SignUp)
	r.Post("/login", h.Login)
	r.Post("/sign-in/{provider}", h.SocialSignIn)
	r.Post("/refresh-token", h.Refresh)

	self := middleware.RequireSelf(func(r *http.Request) string { return chi.URLParam(r, "user_id") })

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.Guard(engine))

		pr.With(middleware.RequireRole(user.RoleAdmin)).Get("/users", h.ListUsers)
		pr.Get("/users/{user_id}", h.GetUser)

		pr.Group(func(sr chi.Router) {
			sr.Use(self)
			sr.Put("/users/{user_id}", h.UpdateProfile)
			sr.Post("/users/{user_id}/confirmation-code", h.VerifyConfirmationCode)
			sr.Put("/users/{user_id}/confirmation-code", h.ResendConfirmationCode)
			sr.Put("/users/{user_id}/preferences/{preferences}", h.UpdatePreferences)
			sr.Post("/users/{user_id}/promotions", h.AddPromotion)
		})
	})

	return r
}

// requestContext copies the client address and user agent into the context
// so audit events carry them.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		ctx := goAccount.WithClientIP(r.Context(), ip)
		ctx = goAccount.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("route", chi.RouteContext(r.Context()).RoutePattern()),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}
