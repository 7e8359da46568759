package enums

// OutboxEventType names the settlement events staged for publication.
type OutboxEventType string

const (
	EventOfferAccepted  OutboxEventType = "offer.accepted"
	EventOfferCompleted OutboxEventType = "offer.completed"
	EventOfferRejected  OutboxEventType = "offer.rejected"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOfferAccepted,
	EventOfferCompleted,
	EventOfferRejected,
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOffer       OutboxAggregateType = "offer"
	AggregateTransaction OutboxAggregateType = "transaction"
)
