package main

import (
	"context"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/swapyard/swapyard-backend/pkg/config"
	"github.com/swapyard/swapyard-backend/pkg/db/models"
	"github.com/swapyard/swapyard-backend/pkg/enums"
	"github.com/swapyard/swapyard-backend/pkg/logger"
)

type fakeDB struct {
	err error
}

func (f *fakeDB) Ping(context.Context) error { return f.err }

type fakePubSub struct {
	err error
}

func (f *fakePubSub) Ping(context.Context) error { return f.err }

func (f *fakePubSub) SettlementPublisher() *gcppubsub.Publisher { return nil }

type fakeRepo struct {
	events    []models.OutboxEvent
	fetchErr  error
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeResult struct {
	err error
}

func (f fakeResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "msg-id", nil
}

type fakePublisher struct {
	results  []fakeResult
	calls    int
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	result := fakeResult{}
	if f.calls < len(f.results) {
		result = f.results[f.calls]
	}
	f.calls++
	return result
}

func testEvent(eventType enums.OutboxEventType, payload string, attempts int) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOffer,
		AggregateID:   uuid.New(),
		Payload:       []byte(payload),
		AttemptCount:  attempts,
		CreatedAt:     time.Now(),
	}
}

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-test"}),
		DB:         &fakeDB{},
		PubSub:     &fakePubSub{},
		Repository: repo,
		PublisherFactory: func() publisher {
			return pub
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	event := testEvent(enums.EventOfferAccepted, `{"version":1,"eventId":"evt-1","data":{}}`, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}

	svc := newTestService(t, repo, pub)
	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report work done")
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("expected no failures, got %v", repo.failed)
	}

	if len(pub.messages) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if string(msg.Data) != `{"version":1,"eventId":"evt-1","data":{}}` {
		t.Fatalf("unexpected payload %s", msg.Data)
	}
	if msg.Attributes["event_type"] != string(enums.EventOfferAccepted) {
		t.Fatalf("unexpected event_type attribute %s", msg.Attributes["event_type"])
	}
	if msg.Attributes["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id attribute %s", msg.Attributes["aggregate_id"])
	}
	if msg.Attributes["event_id"] != "evt-1" {
		t.Fatalf("expected event_id lifted from envelope, got %s", msg.Attributes["event_id"])
	}
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	failing := testEvent(enums.EventOfferRejected, `{"version":1,"eventId":"evt-2","data":{}}`, 3)
	healthy := testEvent(enums.EventOfferCompleted, `{"version":1,"eventId":"evt-3","data":{}}`, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{failing, healthy}}
	pub := &fakePublisher{results: []fakeResult{{err: errors.New("topic unavailable")}, {}}}

	svc := newTestService(t, repo, pub)
	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report work done")
	}
	if len(repo.failed) != 1 || repo.failed[0] != failing.ID {
		t.Fatalf("expected failing event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != healthy.ID {
		t.Fatalf("expected healthy event published, got %v", repo.published)
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, &fakePublisher{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed {
		t.Fatalf("expected idle batch")
	}
}

func TestProcessBatchSurfacesFetchError(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("connection reset")}
	svc := newTestService(t, repo, &fakePublisher{})

	if _, err := svc.processBatch(context.Background()); err == nil {
		t.Fatalf("expected fetch error to surface")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config: &config.Config{},
		Logger: logger.New(logger.Options{ServiceName: "outbox-test"}),
		DB:     &fakeDB{},
		PubSub: &fakePubSub{},
	})
	if err == nil {
		t.Fatalf("expected error for missing repository")
	}
}
