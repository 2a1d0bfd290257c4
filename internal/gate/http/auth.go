package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codequesthq/gate/internal/gate/service"
	"github.com/codequesthq/gate/pkg/clientinfo"
	"github.com/codequesthq/gate/pkg/gatesdk"
	"github.com/codequesthq/gate/pkg/httpx"
	"github.com/codequesthq/gate/pkg/jwtx"
	"github.com/codequesthq/gate/pkg/slogx"
)

// RegisterHandler handles POST /v1/auth/register. Registration is the only
// path that creates an identity from an email; the session token issued here
// is what the gate endpoints verify.
type RegisterHandler struct {
	UserService    *service.UserService
	SessionService *service.SessionService
}

// ServeHTTP handles POST /v1/auth/register.
//
//	@Summary		Register a new account
//	@Description	Creates an identity from an email address and issues a session token for it.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.RegisterRequest		true	"Registration request"
//	@Success		201		{object}	gatesdk.RegisterResponse	"user_id, email, access_token"
//	@Failure		400		{object}	gatesdk.GateError			"error, error_description"
//	@Failure		409		{object}	gatesdk.GateError			"error, error_description"
//	@Failure		503		{object}	gatesdk.GateError			"error, error_description"
//	@Router			/v1/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req gatesdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.UserService.Register(ctx, req.Email, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyRegistered) {
			log.Warn("duplicate registration", "email", req.Email)
			httpx.WriteError(w, http.StatusConflict,
				gatesdk.ErrorCodeAlreadyRegistered, "an account already exists for this email")
			return
		}
		if errors.Is(err, service.ErrDependencyUnavailable) {
			log.Error("registration store failure", "err", err)
			gatesdk.ErrServiceUnavailable.WriteError(w)
			return
		}
		log.Warn("rejected registration", "err", err)
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	client := clientinfo.Classify(r.UserAgent())
	token, err := h.SessionService.IssueSession(ctx, user, client, r.RemoteAddr)
	if err != nil {
		log.Error("failed to issue session", "user_id", user.ID, "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, gatesdk.RegisterResponse{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(jwtx.DefaultSessionTTL.Seconds()),
	})
}

// PhoneLoginHandler handles the two-step phone login: a passcode goes out
// over SMS, and a correct code comes back for a session token.
type PhoneLoginHandler struct {
	UserService     *service.UserService
	PasscodeService *service.PasscodeService
	SessionService  *service.SessionService
}

// HandleStart handles POST /v1/auth/phone.
//
//	@Summary		Start a phone login
//	@Description	Resolves the phone number to an identity, creating one on first contact, and sends a single-use passcode over SMS.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.PhoneLoginRequest	true	"Phone login request"
//	@Success		202		{object}	gatesdk.PhoneLoginResponse	"user_id, expires_in"
//	@Failure		400		{object}	gatesdk.GateError			"error, error_description"
//	@Failure		503		{object}	gatesdk.GateError			"error, error_description"
//	@Router			/v1/auth/phone [post].
func (h *PhoneLoginHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req gatesdk.PhoneLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.UserService.EnsurePhoneUser(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrDependencyUnavailable) {
			log.Error("phone login store failure", "err", err)
			gatesdk.ErrServiceUnavailable.WriteError(w)
			return
		}
		log.Warn("rejected phone login", "err", err)
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	challenge, err := h.PasscodeService.IssueSMS(ctx, user)
	if err != nil {
		if errors.Is(err, service.ErrDeliveryFailed) {
			log.Error("passcode SMS delivery failed", "user_id", user.ID, "err", err)
			httpx.WriteError(w, http.StatusServiceUnavailable,
				gatesdk.ErrorCodeDeliveryUnavailable, "could not deliver the passcode, try again shortly")
			return
		}
		log.Error("failed to issue passcode", "user_id", user.ID, "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, gatesdk.PhoneLoginResponse{
		UserID:    challenge.UserID,
		ExpiresIn: int(service.PasscodeTTL.Seconds()),
	})
}

// HandleVerify handles POST /v1/auth/phone/verify.
//
//	@Summary		Complete a phone login
//	@Description	Verifies the SMS passcode and exchanges it for a session token. A wrong code and an unknown number get the same response.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatesdk.PhoneVerifyRequest	true	"Phone verify request"
//	@Success		200		{object}	gatesdk.TokenResponse		"access_token, token_type, expires_in"
//	@Failure		400		{object}	gatesdk.GateError			"error, error_description"
//	@Failure		503		{object}	gatesdk.GateError			"error, error_description"
//	@Router			/v1/auth/phone/verify [post].
func (h *PhoneLoginHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req gatesdk.PhoneVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.UserService.GetUserByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			// Same response as a wrong code, no probing which numbers exist.
			writeInvalidCode(w)
			return
		}
		log.Error("phone verify store failure", "err", err)
		gatesdk.ErrServiceUnavailable.WriteError(w)
		return
	}

	if err := h.PasscodeService.Verify(ctx, user.ID, req.Code); err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredCode) {
			log.Warn("invalid phone passcode", "user_id", user.ID)
			writeInvalidCode(w)
			return
		}
		log.Error("failed to verify passcode", "user_id", user.ID, "err", err)
		gatesdk.ErrServiceUnavailable.WriteError(w)
		return
	}

	client := clientinfo.Classify(r.UserAgent())
	token, err := h.SessionService.IssueSession(ctx, user, client, r.RemoteAddr)
	if err != nil {
		log.Error("failed to issue session", "user_id", user.ID, "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(jwtx.DefaultSessionTTL.Seconds()),
	})
}

func writeInvalidCode(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusBadRequest,
		gatesdk.ErrorCodeInvalidCode, "the passcode is wrong or expired")
}
