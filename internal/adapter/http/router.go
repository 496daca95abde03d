package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/launchdeck-platform/market-engine/internal/service"
)

func NewRouter(
	users *service.UserService,
	userH *UserHandler,
	appH *AppHandler,
	deployH *DeploymentHandler,
	subH *SubscriptionHandler,
	accessH *AccessHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)
	r.Use(bodySizeLimitMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// 公开端点：注册、登录、provider 回调、launch token 回验。
		r.Post("/auth/signup", userH.Signup)
		r.Post("/auth/login", userH.Login)
		r.Post("/deployments/{id}/webhook", deployH.Webhook)
		r.Post("/access/verify-token", accessH.VerifyToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(users))

			r.Get("/auth/me", userH.Me)
			r.Post("/auth/onboarding", userH.CompleteOnboarding)

			r.Route("/apps", func(r chi.Router) {
				r.Post("/", appH.Create)
				r.Get("/", appH.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", appH.Get)
					r.Put("/", appH.Update)
					r.Delete("/", appH.Delete)
					r.Put("/pricing", appH.UpdatePricing)
					r.Put("/step", appH.UpdateStep)
					r.Post("/upload", appH.UploadSource)

					r.Post("/deploy", deployH.Deploy)
					r.Post("/redeploy", deployH.Redeploy)
					r.Get("/logs", deployH.GetLogs)

					r.Post("/launch", accessH.Launch)
				})
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", subH.List)
				r.Post("/orders", subH.CreateOrder)
				r.Post("/verify", subH.VerifyPayment)
				r.Post("/{id}/cancel", subH.Cancel)
			})
		})
	})

	return r
}
