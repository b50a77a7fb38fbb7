package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterOptions struct {
	// AuthMiddleware authenticates every route except /healthz and /validation/*.
	// Nil leaves those routes without a subject, so they answer 401.
	AuthMiddleware func(http.Handler) http.Handler
	// SignUpLimiter throttles POST /accounts per caller. Nil disables it.
	SignUpLimiter *SubjectRateLimiter
	Logger        *zap.Logger
}

func NewRouter(api *Server) http.Handler {
	return NewRouterWithOptions(api, RouterOptions{})
}

func NewRouterWithOptions(api *Server, opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewRequestLogger(log))
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Form checks run before an account exists, so they need no token.
	r.Route("/validation", func(r chi.Router) {
		r.Post("/password-strength", api.CheckPasswordStrength)
		r.Post("/sign-up", api.CheckSignUpForm)
		r.Post("/account-settings", api.CheckAccountSettingsForm)
	})

	r.Group(func(r chi.Router) {
		if opts.AuthMiddleware != nil {
			r.Use(opts.AuthMiddleware)
		}

		r.Get("/me/role", api.GetMyRole)

		r.Route("/accounts", func(r chi.Router) {
			r.With(opts.SignUpLimiter.Middleware).Post("/", api.SignUp)
			r.Get("/", api.ListAccounts)

			r.Route("/{accountId}", func(r chi.Router) {
				r.Get("/", api.GetAccount)
				r.Patch("/", api.UpdateAccount)
				r.Delete("/", api.DeleteAccount)
				r.Put("/approval", api.SetApproval)

				r.Get("/students", api.ListStudents)
				r.Post("/students", api.AddStudent)
				r.Get("/students/lookup", api.LookupStudent)

				r.Route("/students/{studentId}", func(r chi.Router) {
					r.Get("/", api.GetStudent)
					r.Put("/", api.EditStudent)
					r.Delete("/", api.DeleteStudent)
					r.Post("/grades", api.AddGrade)
					r.Post("/promotion", api.PromoteStudent)
					r.Put("/license", api.RenewLicense)
					r.Post("/license-application", api.SubmitLicenseApplication)
				})
			})
		})
	})
	return r
}
