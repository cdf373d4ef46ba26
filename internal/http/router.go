package http

import (
	"net/http"

	"github.com/bibihez/moos/internal/config"
	"github.com/bibihez/moos/internal/event"
	"github.com/bibihez/moos/internal/feed"
	"github.com/bibihez/moos/internal/http/handler"
	mw "github.com/bibihez/moos/internal/http/middleware"
	"github.com/bibihez/moos/internal/token"
	"github.com/bibihez/moos/internal/view"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

func NewRouter(cfg config.Config, svc *event.Service, tokens *token.Resolver, hub *feed.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	validate := validator.New()
	views := &view.Resolver{Events: svc, Tokens: tokens}

	eh := &handler.EventHandler{Svc: svc, Tokens: tokens, Views: views, BaseURL: cfg.PublicBaseURL, Validate: validate}
	ph := &handler.ParticipantHandler{Svc: svc, Hub: hub, Validate: validate}
	vh := &handler.VoteHandler{Svc: svc}

	r.Route("/api", func(r chi.Router) {
		r.Get("/questions", ph.Questions)
		r.Post("/events", eh.Create)

		r.Route("/events/{id}", func(r chi.Router) {
			r.Get("/", eh.Get)
			r.Get("/view", eh.View)
			r.Post("/generate", eh.Generate)
			r.Put("/iban", eh.UpdateIban)

			r.Post("/participants", ph.Join)
			r.Get("/participants", ph.List)
			r.Get("/participants/feed", ph.Feed)
			r.Post("/participants/{pid}/answers", ph.SubmitAnswers)

			r.Get("/gifts", vh.Gifts)
			r.Get("/results", vh.Results)
			r.Post("/votes", vh.Submit)
		})

		r.Post("/participants/{pid}/paid", ph.MarkPaid)
	})

	return r
}
