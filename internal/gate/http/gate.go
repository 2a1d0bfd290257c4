package http

import (
	"encoding/json"
	"net/http"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/service"
	"github.com/codequesthq/gate/pkg/gatesdk"
	"github.com/codequesthq/gate/pkg/httpx"
	"github.com/codequesthq/gate/pkg/slogx"
)

// GateHandler fronts the access decision endpoints. Both take the session
// token from the Authorization header and the browser identity from the
// User-Agent header; the response status tracks the decision.
type GateHandler struct {
	GateService *service.GateService
}

// HandleAuthenticate handles POST /v1/gate/authenticate.
//
//	@Summary		Request an access decision
//	@Description	Verifies the session token, classifies the calling browser and applies the access window. Chrome callers get a passcode challenge instead of a verdict.
//	@Tags			Gate
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string					true	"Bearer session token"
//	@Param			User-Agent		header		string					false	"Browser identity used for classification"
//	@Success		200				{object}	gatesdk.DecisionResponse	"status allowed"
//	@Failure		401				{object}	gatesdk.DecisionResponse	"status denied, invalid credential"
//	@Failure		403				{object}	gatesdk.DecisionResponse	"challenge required or time restricted"
//	@Failure		503				{object}	gatesdk.DecisionResponse	"dependency failure"
//	@Router			/v1/gate/authenticate [post].
func (h *GateHandler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, ok := httpx.BearerToken(r)
	if !ok {
		gatesdk.ErrInvalidToken.WriteError(w)
		return
	}

	decision, err := h.GateService.Authenticate(ctx, token, r.UserAgent())
	if err != nil && decision.Reason == domain.ReasonDependencyFailure {
		log.Error("gate authenticate failed", "err", err)
	}
	writeDecision(w, decision)
}

// HandleChallenge handles POST /v1/gate/challenge.
//
//	@Summary		Answer a passcode challenge
//	@Description	Verifies an outstanding passcode for the token holder. A correct code succeeds exactly once; a wrong one leaves a still-valid challenge in place.
//	@Tags			Gate
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string					true	"Bearer session token"
//	@Param			request			body		gatesdk.ChallengeRequest	true	"Submitted passcode"
//	@Success		200				{object}	gatesdk.DecisionResponse	"status allowed"
//	@Failure		401				{object}	gatesdk.DecisionResponse	"status denied, invalid credential"
//	@Failure		403				{object}	gatesdk.DecisionResponse	"wrong or expired code, or time restricted"
//	@Failure		503				{object}	gatesdk.DecisionResponse	"dependency failure"
//	@Router			/v1/gate/challenge [post].
func (h *GateHandler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, ok := httpx.BearerToken(r)
	if !ok {
		gatesdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req gatesdk.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	decision, err := h.GateService.SubmitChallenge(ctx, token, req.Code, r.UserAgent())
	if err != nil && decision.Reason == domain.ReasonDependencyFailure {
		log.Error("gate challenge failed", "err", err)
	}
	writeDecision(w, decision)
}

// writeDecision maps a gate decision onto an HTTP status. Denials always
// carry the decision body so callers see the reason and, for time
// restrictions, the window to retry in.
func writeDecision(w http.ResponseWriter, d domain.Decision) {
	httpx.WriteJSON(w, decisionStatusCode(d), gatesdk.DecisionResponse{
		Status: string(d.Status),
		Reason: string(d.Reason),
		UserID: d.UserID,
		Window: d.Window,
	})
}

func decisionStatusCode(d domain.Decision) int {
	switch d.Status {
	case domain.StatusAllowed:
		return http.StatusOK
	case domain.StatusChallengeRequired:
		return http.StatusForbidden
	}

	switch d.Reason {
	case domain.ReasonInvalidCredential, domain.ReasonUserNotFound:
		return http.StatusUnauthorized
	case domain.ReasonDependencyFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusForbidden
	}
}

// WindowHandler handles GET /v1/gate/window.
type WindowHandler struct {
	GateService *service.GateService
}

// ServeHTTP handles GET /v1/gate/window.
//
//	@Summary		Look up an operation window
//	@Description	Reports whether the given operation class is currently open for the calling browser, together with the applicable window.
//	@Tags			Gate
//	@Produce		json
//	@Param			op			query		string					false	"Operation class (login, subscription, video); defaults to login"
//	@Param			User-Agent	header		string					false	"Browser identity used for classification"
//	@Success		200			{object}	gatesdk.WindowResponse	"operation, allowed, window"
//	@Failure		400			{object}	gatesdk.GateError		"error, error_description"
//	@Router			/v1/gate/window [get].
func (h *WindowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	op := domain.Operation(r.URL.Query().Get("op"))
	if op == "" {
		op = domain.OpLogin
	}
	if !domain.ValidOperation(op) {
		httpx.WriteError(w, http.StatusBadRequest,
			gatesdk.ErrorCodeInvalidRequest, "unknown operation class")
		return
	}

	allowed, window := h.GateService.CheckOperationWindow(op, r.UserAgent())
	httpx.WriteJSON(w, http.StatusOK, gatesdk.WindowResponse{
		Operation: string(op),
		Allowed:   allowed,
		Window:    window,
	})
}
