package offers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapyard/swapyard-backend/internal/items"
	"github.com/swapyard/swapyard-backend/pkg/db/models"
	"github.com/swapyard/swapyard-backend/pkg/enums"
	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
	"github.com/swapyard/swapyard-backend/pkg/pagination"
)

// CreateOfferInput carries everything a buyer submits to open an offer.
// The seller is derived from the item, never from the request.
type CreateOfferInput struct {
	BuyerID               uuid.UUID
	ItemID                uuid.UUID
	Kind                  enums.OfferKind
	ProposedValueCents    int64
	OfferedItemValueCents int64
	Description           string
}

// OfferList is a single page of offers plus the cursor for the next one.
type OfferList struct {
	Offers     []models.Offer
	NextCursor string
}

// Service defines the offer registry surface.
type Service interface {
	Create(ctx context.Context, input CreateOfferInput) (*models.Offer, error)
	Get(ctx context.Context, userID, offerID uuid.UUID) (*models.Offer, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OfferList, error)
}

type service struct {
	repo  Repository
	items items.Repository
}

// NewService builds an offers service with the required dependencies.
func NewService(repo Repository, itemsRepo items.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if itemsRepo == nil {
		return nil, fmt.Errorf("items repository required")
	}
	return &service{repo: repo, items: itemsRepo}, nil
}

func (s *service) Create(ctx context.Context, input CreateOfferInput) (*models.Offer, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown offer kind")
	}
	if input.ProposedValueCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposed value must be positive")
	}
	if input.Kind == enums.OfferKindTrade && input.OfferedItemValueCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trade offers must declare the offered item value")
	}
	if input.Kind == enums.OfferKindPurchase && input.OfferedItemValueCents != 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase offers cannot carry an offered item value")
	}

	item, err := s.items.FindByID(ctx, input.ItemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if item.OwnerID == input.BuyerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot make an offer on your own item")
	}
	if item.Status != enums.ItemStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item is not available").
			WithDetails(map[string]any{"item_status": item.Status})
	}

	offer := &models.Offer{
		Kind:                  input.Kind,
		BuyerID:               input.BuyerID,
		SellerID:              item.OwnerID,
		ItemID:                item.ID,
		ProposedValueCents:    input.ProposedValueCents,
		OfferedItemValueCents: input.OfferedItemValueCents,
		Description:           strings.TrimSpace(input.Description),
		Status:                enums.OfferStatusPending,
	}
	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}
	return offer, nil
}

func (s *service) Get(ctx context.Context, userID, offerID uuid.UUID) (*models.Offer, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if offerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}

	offer, err := s.repo.FindByID(ctx, offerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if offer.BuyerID != userID && offer.SellerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "offer does not involve user")
	}
	return offer, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OfferList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, next, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}

	list := &OfferList{Offers: rows}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}
