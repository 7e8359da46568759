package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/swapyard/swapyard-backend/api/middleware"
	"github.com/swapyard/swapyard-backend/api/responses"
	"github.com/swapyard/swapyard-backend/api/validators"
	"github.com/swapyard/swapyard-backend/internal/offers"
	"github.com/swapyard/swapyard-backend/internal/settlement"
	"github.com/swapyard/swapyard-backend/pkg/db/models"
	"github.com/swapyard/swapyard-backend/pkg/enums"
	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
	"github.com/swapyard/swapyard-backend/pkg/logger"
	"github.com/swapyard/swapyard-backend/pkg/metrics"
	"github.com/swapyard/swapyard-backend/pkg/pagination"
)

type createOfferRequest struct {
	ItemID                string `json:"item_id" validate:"required,uuid4"`
	Kind                  string `json:"kind" validate:"required,oneof=purchase trade"`
	ProposedValueCents    int64  `json:"proposed_value_cents" validate:"required,gt=0"`
	OfferedItemValueCents int64  `json:"offered_item_value_cents,omitempty" validate:"omitempty,gt=0"`
	Description           string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// CreateOffer opens a pending offer on someone else's item.
func CreateOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(strings.TrimSpace(payload.ItemID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}
		kind, err := enums.ParseOfferKind(strings.TrimSpace(payload.Kind))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer kind"))
			return
		}

		offer, err := svc.Create(r.Context(), offers.CreateOfferInput{
			BuyerID:               actorID,
			ItemID:                itemID,
			Kind:                  kind,
			ProposedValueCents:    payload.ProposedValueCents,
			OfferedItemValueCents: payload.OfferedItemValueCents,
			Description:           payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOfferView(offer))
	}
}

// GetOffer returns one offer to either of its parties.
func GetOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := parseOfferID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Get(r.Context(), actorID, offerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOfferView(offer))
	}
}

// ListOffers pages through the offers the caller is party to, newest first.
func ListOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		list, err := svc.ListForUser(r.Context(), actorID, pagination.Params{
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOfferListView(list.Offers, list.NextCursor))
	}
}

// AcceptOffer locks the offer in and places the escrow holds. Seller only.
func AcceptOffer(svc settlement.Service, logg *logger.Logger, m *metrics.SettlementMetrics) http.HandlerFunc {
	return transitionHandler(svc, logg, m, "accept", settlement.Service.Accept)
}

// ConfirmOffer records the caller's confirmation; the second confirmation
// settles the escrow.
func ConfirmOffer(svc settlement.Service, logg *logger.Logger, m *metrics.SettlementMetrics) http.HandlerFunc {
	return transitionHandler(svc, logg, m, "confirm", settlement.Service.Confirm)
}

// RejectOffer walks away from a non-terminal offer and unwinds any holds.
func RejectOffer(svc settlement.Service, logg *logger.Logger, m *metrics.SettlementMetrics) http.HandlerFunc {
	return transitionHandler(svc, logg, m, "reject", settlement.Service.Reject)
}

func transitionHandler(
	svc settlement.Service,
	logg *logger.Logger,
	m *metrics.SettlementMetrics,
	name string,
	transition func(settlement.Service, context.Context, settlement.TransitionInput) (*models.Offer, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := parseOfferID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOfferID(ctx, offerID.String())
		}

		start := time.Now()
		offer, err := transition(svc, ctx, settlement.TransitionInput{
			OfferID:     offerID,
			ActorUserID: actorID,
		})
		m.ObserveDuration(name, time.Since(start))
		if err != nil {
			m.IncFailure(name)
			responses.WriteError(ctx, logg, w, err)
			return
		}
		m.IncSuccess(name)
		responses.WriteSuccess(w, newOfferView(offer))
	}
}

func parseOfferID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "offerId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	offerID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer id")
	}
	return offerID, nil
}

func actorFromContext(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return actorID, nil
}
