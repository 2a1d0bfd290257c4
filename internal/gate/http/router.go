package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/codequesthq/gate/internal/gate/service"
	"github.com/codequesthq/gate/internal/gate/store"
	"github.com/codequesthq/gate/pkg/httpx"
	"github.com/codequesthq/gate/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     httpx.SessionVerifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	GateService         *service.GateService
	SessionService      *service.SessionService
	UserService         *service.UserService
	PasscodeService     *service.PasscodeService
	SubscriptionService *service.SubscriptionService
}

func NewRouter(
	verifier httpx.SessionVerifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerGate()
	r.registerMe()
	r.registerSubscriptions()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	registerHandler := &RegisterHandler{
		UserService:    r.UserService,
		SessionService: r.SessionService,
	}

	// POST /auth/register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	phoneHandler := &PhoneLoginHandler{
		UserService:     r.UserService,
		PasscodeService: r.PasscodeService,
		SessionService:  r.SessionService,
	}

	// POST /auth/phone - strict rate limit by IP (sends SMS, costs money)
	r.Mux.Handle("POST /v1/auth/phone",
		httpx.Chain(http.HandlerFunc(phoneHandler.HandleStart),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/phone/verify - strict rate limit by IP (prevent brute force
	// of passcodes)
	r.Mux.Handle("POST /v1/auth/phone/verify",
		httpx.Chain(http.HandlerFunc(phoneHandler.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerGate() {
	h := &GateHandler{GateService: r.GateService}

	// POST /gate/authenticate - moderate rate limit by IP (every protected
	// action funnels through here)
	r.Mux.Handle("POST /v1/gate/authenticate",
		httpx.Chain(http.HandlerFunc(h.HandleAuthenticate),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /gate/challenge - strict rate limit by IP (prevent brute force of
	// passcodes)
	r.Mux.Handle("POST /v1/gate/challenge",
		httpx.Chain(http.HandlerFunc(h.HandleChallenge),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /gate/window - public window lookup, lenient limit
	windowHandler := &WindowHandler{GateService: r.GateService}
	r.Mux.Handle("GET /v1/gate/window",
		httpx.Chain(windowHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerMe() {
	h := &MeHandler{
		UserService: r.UserService,
		GateService: r.GateService,
	}

	// Authenticated endpoints - lenient rate limit by user
	secured := func(handler http.Handler) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /v1/me", secured(http.HandlerFunc(h.HandleProfile)))
	r.Mux.Handle("GET /v1/me/limit", secured(http.HandlerFunc(h.HandleLimit)))
	r.Mux.Handle("GET /v1/me/logins", secured(http.HandlerFunc(h.HandleLogins)))
}

func (r *Router) registerSubscriptions() {
	h := &SubscriptionsHandler{SubscriptionService: r.SubscriptionService}

	// POST /subscriptions - moderate rate limit by user
	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/subscriptions", secured)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
