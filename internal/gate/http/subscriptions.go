package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/service"
	"github.com/codequesthq/gate/pkg/gatesdk"
	"github.com/codequesthq/gate/pkg/httpx"
	"github.com/codequesthq/gate/pkg/slogx"
)

// SubscriptionsHandler handles POST /v1/subscriptions.
type SubscriptionsHandler struct {
	SubscriptionService *service.SubscriptionService
}

// ServeHTTP handles POST /v1/subscriptions.
//
//	@Summary		Activate a subscription
//	@Description	Puts the authenticated user on a paid plan. Purchases are only processed inside the subscription window.
//	@Tags			Subscriptions
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string							true	"Bearer session token"
//	@Param			request			body		gatesdk.SubscriptionRequest		true	"Plan and term in months"
//	@Success		201				{object}	gatesdk.SubscriptionResponse	"plan, starts_at, ends_at"
//	@Failure		400				{object}	gatesdk.GateError				"error, error_description"
//	@Failure		403				{object}	gatesdk.GateError				"error, error_description"
//	@Failure		503				{object}	gatesdk.GateError				"error, error_description"
//	@Router			/v1/subscriptions [post].
func (h *SubscriptionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := httpx.UserIDFromCtx(ctx)
	if !ok {
		gatesdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req gatesdk.SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	sub, err := h.SubscriptionService.Activate(ctx, userID, domain.Plan(req.Plan), req.Months)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlan):
			httpx.WriteError(w, http.StatusBadRequest,
				gatesdk.ErrorCodeInvalidPlan, "unknown or non-purchasable plan")
		case errors.Is(err, service.ErrSubscriptionWindowClosed):
			log.Warn("subscription attempt outside window", "user_id", userID)
			httpx.WriteError(w, http.StatusForbidden,
				gatesdk.ErrorCodeWindowClosed, "subscriptions are processed between 10:00 and 11:00")
		case errors.Is(err, service.ErrUserNotFound):
			gatesdk.ErrUserNotFound.WriteError(w)
		default:
			log.Error("failed to activate subscription", "user_id", userID, "err", err)
			gatesdk.ErrServiceUnavailable.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, gatesdk.SubscriptionResponse{
		Plan:     string(sub.Plan),
		StartsAt: sub.StartsAt.Format("2006-01-02"),
		EndsAt:   sub.EndsAt.Format("2006-01-02"),
	})
}
