// Package server assembles the HTTP routes.
package server

import (
	"net/http"
	"net/netip"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/umar/messagely/internal/apperr"
	"github.com/umar/messagely/internal/auth"
	"github.com/umar/messagely/internal/handlers"
	"github.com/umar/messagely/internal/httpx"
	"github.com/umar/messagely/internal/middleware"
)

type Deps struct {
	DB          handlers.Pinger
	Accounts    auth.UserStore
	Directory   handlers.UserDirectory
	Messages    handlers.MessageService
	SendLimiter middleware.Limiter
	AuthLimiter middleware.Limiter
	// TrustedProxies are the peers whose X-Forwarded-For is believed.
	TrustedProxies []netip.Prefix
	Auth           auth.Options
}

func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Logging)
	router.NotFoundHandler = httpx.Wrap(func(http.ResponseWriter, *http.Request) error {
		return apperr.NotFound("not found")
	})

	router.HandleFunc("/health", handlers.Health(d.DB)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	public := router.PathPrefix("/auth").Subrouter()
	public.Use(middleware.RateLimit(d.AuthLimiter, middleware.ClientIP(d.TrustedProxies)))
	public.Handle("/register", httpx.Wrap(auth.RegisterHandler(d.Accounts, d.Auth))).Methods(http.MethodPost)
	public.Handle("/login", httpx.Wrap(auth.LoginHandler(d.Accounts, d.Auth))).Methods(http.MethodPost)

	protected := router.NewRoute().Subrouter()
	protected.Use(auth.JWTMiddleware(d.Auth.JWTSecret))

	limitSends := middleware.RateLimit(d.SendLimiter, middleware.ByCaller)
	protected.Handle("/messages", limitSends(httpx.Wrap(handlers.SendMessage(d.Messages)))).Methods(http.MethodPost)
	protected.Handle("/messages/{id:[0-9]+}", httpx.Wrap(handlers.GetMessage(d.Messages))).Methods(http.MethodGet)
	protected.Handle("/messages/{id:[0-9]+}/read", httpx.Wrap(handlers.MarkRead(d.Messages))).Methods(http.MethodPost)

	self := func(h httpx.HandlerFunc) http.Handler { return auth.EnsureCorrectUser(httpx.Wrap(h)) }
	protected.Handle("/users", httpx.Wrap(handlers.ListUsers(d.Directory))).Methods(http.MethodGet)
	protected.Handle("/users/{username}", self(handlers.GetUser(d.Directory))).Methods(http.MethodGet)
	protected.Handle("/users/{username}/to", self(handlers.MessagesTo(d.Directory))).Methods(http.MethodGet)
	protected.Handle("/users/{username}/from", self(handlers.MessagesFrom(d.Directory))).Methods(http.MethodGet)

	return router
}
