package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/codequesthq/gate/internal/gate/policy"
	"github.com/codequesthq/gate/internal/gate/service"
	"github.com/codequesthq/gate/pkg/gatesdk"
	"github.com/codequesthq/gate/pkg/httpx"
	"github.com/codequesthq/gate/pkg/slogx"
)

// MeHandler serves the authenticated user's own profile, quota, and login
// history. All routes sit behind AuthnMiddleware.
type MeHandler struct {
	UserService *service.UserService
	GateService *service.GateService
}

// HandleProfile handles GET /v1/me.
//
//	@Summary		Get own profile
//	@Description	Returns the authenticated user's profile including the current daily post allowance.
//	@Tags			Me
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string					true	"Bearer session token"
//	@Success		200				{object}	gatesdk.ProfileResponse	"Profile with daily_post_limit"
//	@Failure		401				{object}	gatesdk.GateError		"error, error_description"
//	@Failure		503				{object}	gatesdk.GateError		"error, error_description"
//	@Router			/v1/me [get].
func (h *MeHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromCtx(ctx)
	if !ok {
		gatesdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.UserService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			gatesdk.ErrUserNotFound.WriteError(w)
			return
		}
		log.Error("failed to load user", "user_id", userID, "err", err)
		gatesdk.ErrServiceUnavailable.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.ProfileResponse{
		UserID:         user.ID,
		Email:          user.Email,
		Phone:          user.Phone,
		Name:           user.Name,
		Plan:           string(user.Subscription.Plan),
		FriendCount:    user.FriendCount,
		DailyPostLimit: renderLimit(policy.DailyPostLimit(user, h.now())),
	})
}

// HandleLimit handles GET /v1/me/limit. Unlimited plans render as the string
// "unlimited" rather than a sentinel number.
//
//	@Summary		Get daily post limit
//	@Description	Computes the authenticated user's current daily posting ceiling from plan and social graph.
//	@Tags			Me
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string					true	"Bearer session token"
//	@Success		200				{object}	gatesdk.LimitResponse	"daily_post_limit, a number or the string unlimited"
//	@Failure		401				{object}	gatesdk.GateError		"error, error_description"
//	@Failure		503				{object}	gatesdk.GateError		"error, error_description"
//	@Router			/v1/me/limit [get].
func (h *MeHandler) HandleLimit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token, ok := httpx.BearerToken(r)
	if !ok {
		gatesdk.ErrInvalidToken.WriteError(w)
		return
	}

	limit, err := h.GateService.DailyLimit(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredential):
			gatesdk.ErrInvalidToken.WriteError(w)
		case errors.Is(err, service.ErrUserNotFound):
			gatesdk.ErrUserNotFound.WriteError(w)
		default:
			log.Error("failed to compute daily limit", "err", err)
			gatesdk.ErrServiceUnavailable.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.LimitResponse{Limit: renderLimit(limit)})
}

// renderLimit turns the unlimited sentinel into a string the UI can show
// directly; every other limit stays a number.
func renderLimit(limit policy.PostLimit) any {
	if limit.IsUnlimited() {
		return "unlimited"
	}
	return int(limit)
}

func (h *MeHandler) now() time.Time {
	if h.GateService != nil && h.GateService.Now != nil {
		return h.GateService.Now()
	}
	return time.Now()
}

// HandleLogins handles GET /v1/me/logins.
//
//	@Summary		Get login history
//	@Description	Returns the authenticated user's most recent login records, newest first.
//	@Tags			Me
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string							true	"Bearer session token"
//	@Success		200				{object}	gatesdk.LoginHistoryResponse	"List of login records"
//	@Failure		401				{object}	gatesdk.GateError				"error, error_description"
//	@Failure		503				{object}	gatesdk.GateError				"error, error_description"
//	@Router			/v1/me/logins [get].
func (h *MeHandler) HandleLogins(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromCtx(ctx)
	if !ok {
		gatesdk.ErrInvalidToken.WriteError(w)
		return
	}

	records, err := h.UserService.ListLogins(ctx, userID, 50)
	if err != nil {
		log.Error("failed to list logins", "user_id", userID, "err", err)
		gatesdk.ErrServiceUnavailable.WriteError(w)
		return
	}

	resp := gatesdk.LoginHistoryResponse{
		Logins: make([]gatesdk.LoginRecordResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.Logins = append(resp.Logins, gatesdk.LoginRecordResponse{
			At:          rec.At.Format(time.RFC3339),
			AgentFamily: rec.AgentFamily,
			DeviceClass: rec.DeviceClass,
			SourceAddr:  rec.SourceAddr,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
