package offers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapyard/swapyard-backend/internal/items"
	"github.com/swapyard/swapyard-backend/pkg/db/models"
	"github.com/swapyard/swapyard-backend/pkg/enums"
	pkgerrors "github.com/swapyard/swapyard-backend/pkg/errors"
	"github.com/swapyard/swapyard-backend/pkg/pagination"
)

type stubOffersRepo struct {
	created *models.Offer
	offer   *models.Offer
	list    []models.Offer
	next    *pagination.Cursor
}

func (s *stubOffersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOffersRepo) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	s.created = offer
	return nil
}

func (s *stubOffersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	if s.offer == nil || s.offer.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.offer, nil
}

func (s *stubOffersRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	return s.FindByID(ctx, id)
}

func (s *stubOffersRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	panic("not implemented")
}

func (s *stubOffersRepo) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Offer, *pagination.Cursor, error) {
	return s.list, s.next, nil
}

type stubItemsRepo struct {
	item *models.Item
}

func (s *stubItemsRepo) WithTx(tx *gorm.DB) items.Repository {
	return s
}

func (s *stubItemsRepo) Create(ctx context.Context, item *models.Item) error {
	panic("not implemented")
}

func (s *stubItemsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if s.item == nil || s.item.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.item, nil
}

func (s *stubItemsRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.ItemStatus) (bool, error) {
	panic("not implemented")
}

func (s *stubItemsRepo) SetStatus(ctx context.Context, id uuid.UUID, status enums.ItemStatus) error {
	panic("not implemented")
}

func newOfferService(t *testing.T, repo *stubOffersRepo, itemsRepo *stubItemsRepo) Service {
	t.Helper()
	svc, err := NewService(repo, itemsRepo)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func availableItem(ownerID uuid.UUID) *models.Item {
	return &models.Item{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Title:          "film camera",
		ListPriceCents: 12000,
		Status:         enums.ItemStatusAvailable,
	}
}

func TestCreatePurchaseOffer(t *testing.T) {
	sellerID := uuid.New()
	buyerID := uuid.New()
	item := availableItem(sellerID)
	repo := &stubOffersRepo{}
	svc := newOfferService(t, repo, &stubItemsRepo{item: item})

	offer, err := svc.Create(context.Background(), CreateOfferInput{
		BuyerID:            buyerID,
		ItemID:             item.ID,
		Kind:               enums.OfferKindPurchase,
		ProposedValueCents: 11000,
		Description:        "  would love this  ",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if offer.SellerID != sellerID {
		t.Fatalf("seller must come from the item owner, got %s", offer.SellerID)
	}
	if offer.Status != enums.OfferStatusPending {
		t.Fatalf("expected pending got %s", offer.Status)
	}
	if offer.BuyerConfirmed || offer.SellerConfirmed {
		t.Fatal("confirmation flags must start false")
	}
	if offer.Description != "would love this" {
		t.Fatalf("expected trimmed description got %q", offer.Description)
	}
	if repo.created == nil {
		t.Fatal("expected offer persisted")
	}
}

func TestCreateTradeOfferRequiresDeclaredValue(t *testing.T) {
	sellerID := uuid.New()
	item := availableItem(sellerID)
	svc := newOfferService(t, &stubOffersRepo{}, &stubItemsRepo{item: item})

	_, err := svc.Create(context.Background(), CreateOfferInput{
		BuyerID:            uuid.New(),
		ItemID:             item.ID,
		Kind:               enums.OfferKindTrade,
		ProposedValueCents: 5000,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestCreateOfferOnOwnItem(t *testing.T) {
	sellerID := uuid.New()
	item := availableItem(sellerID)
	svc := newOfferService(t, &stubOffersRepo{}, &stubItemsRepo{item: item})

	_, err := svc.Create(context.Background(), CreateOfferInput{
		BuyerID:            sellerID,
		ItemID:             item.ID,
		Kind:               enums.OfferKindPurchase,
		ProposedValueCents: 5000,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestCreateOfferItemMissing(t *testing.T) {
	svc := newOfferService(t, &stubOffersRepo{}, &stubItemsRepo{})

	_, err := svc.Create(context.Background(), CreateOfferInput{
		BuyerID:            uuid.New(),
		ItemID:             uuid.New(),
		Kind:               enums.OfferKindPurchase,
		ProposedValueCents: 5000,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestCreateOfferItemUnavailable(t *testing.T) {
	sellerID := uuid.New()
	item := availableItem(sellerID)
	item.Status = enums.ItemStatusReserved
	svc := newOfferService(t, &stubOffersRepo{}, &stubItemsRepo{item: item})

	_, err := svc.Create(context.Background(), CreateOfferInput{
		BuyerID:            uuid.New(),
		ItemID:             item.ID,
		Kind:               enums.OfferKindPurchase,
		ProposedValueCents: 5000,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestCreateOfferNonPositiveValue(t *testing.T) {
	sellerID := uuid.New()
	item := availableItem(sellerID)
	svc := newOfferService(t, &stubOffersRepo{}, &stubItemsRepo{item: item})

	for _, value := range []int64{0, -100} {
		_, err := svc.Create(context.Background(), CreateOfferInput{
			BuyerID:            uuid.New(),
			ItemID:             item.ID,
			Kind:               enums.OfferKindPurchase,
			ProposedValueCents: value,
		})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %d got %v", value, err)
		}
	}
}

func TestGetOfferAuthorization(t *testing.T) {
	buyerID, sellerID := uuid.New(), uuid.New()
	offer := &models.Offer{
		ID:       uuid.New(),
		BuyerID:  buyerID,
		SellerID: sellerID,
		Status:   enums.OfferStatusPending,
	}
	repo := &stubOffersRepo{offer: offer}
	svc := newOfferService(t, repo, &stubItemsRepo{})

	if _, err := svc.Get(context.Background(), buyerID, offer.ID); err != nil {
		t.Fatalf("buyer should read the offer: %v", err)
	}
	if _, err := svc.Get(context.Background(), sellerID, offer.ID); err != nil {
		t.Fatalf("seller should read the offer: %v", err)
	}

	_, err := svc.Get(context.Background(), uuid.New(), offer.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden got %v", err)
	}

	_, err = svc.Get(context.Background(), buyerID, uuid.New())
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestListForUserEncodesCursor(t *testing.T) {
	userID := uuid.New()
	next := &pagination.Cursor{ID: uuid.New()}
	repo := &stubOffersRepo{
		list: []models.Offer{{ID: uuid.New(), BuyerID: userID}},
		next: next,
	}
	svc := newOfferService(t, repo, &stubItemsRepo{})

	list, err := svc.ListForUser(context.Background(), userID, pagination.Params{Limit: 1})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(list.Offers) != 1 {
		t.Fatalf("expected one offer got %d", len(list.Offers))
	}
	if list.NextCursor == "" {
		t.Fatal("expected encoded next cursor")
	}
	decoded, err := pagination.ParseCursor(list.NextCursor)
	if err != nil || decoded.ID != next.ID {
		t.Fatalf("cursor does not round trip: %v", err)
	}
}

func TestListForUserRejectsBadCursor(t *testing.T) {
	svc := newOfferService(t, &stubOffersRepo{}, &stubItemsRepo{})

	_, err := svc.ListForUser(context.Background(), uuid.New(), pagination.Params{Cursor: "not-base64!!"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}
