package types

import (
	"time"

	"github.com/swapyard/swapyard-backend/pkg/enums"
)

// TimelineEntry is one step in a transaction's audit history.
type TimelineEntry struct {
	Status    enums.TransactionStatus `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Note      string                  `json:"note,omitempty"`
}

// Timeline is the ordered, append-only history of a transaction. Stored as
// jsonb; entries are only ever appended, never rewritten.
type Timeline []TimelineEntry

// Append returns a new timeline with the entry added at the end.
func (t Timeline) Append(entry TimelineEntry) Timeline {
	out := make(Timeline, 0, len(t)+1)
	out = append(out, t...)
	return append(out, entry)
}
