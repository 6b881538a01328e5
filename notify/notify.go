package notify

import "context"

// EventKind identifies what happened. The kinds double as the stable wire
// names persisted with each notification row.
type EventKind string

const (
	KindListingApproved   EventKind = "listing_approved"
	KindListingRejected   EventKind = "listing_rejected"
	KindListingPending    EventKind = "listing_pending"
	KindNewInquiry        EventKind = "inquiry_new"
	KindInquiryResponded  EventKind = "inquiry_response"
	KindPropertyFavorited EventKind = "property_favorited"
	KindWelcome           EventKind = "system_welcome"
)

// Notifier delivers an event to a user. Domain services call it
// synchronously but ignore the outcome: delivery failure must never roll
// back the state change that triggered it.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, kind EventKind, payload map[string]any) error
}

// Recorder is a Notifier that keeps events in memory, for tests.
type Recorder struct {
	Events []RecordedEvent
}

type RecordedEvent struct {
	RecipientID string
	Kind        EventKind
	Payload     map[string]any
}

func (r *Recorder) Notify(_ context.Context, recipientID string, kind EventKind, payload map[string]any) error {
	r.Events = append(r.Events, RecordedEvent{RecipientID: recipientID, Kind: kind, Payload: payload})
	return nil
}
