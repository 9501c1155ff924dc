package listingproc

import (
	"context"
	"time"
)

// Notification is the outbound message published for each matching asset,
// or for service lifecycle events such as the startup readiness message.
type Notification struct {
	Title       string    // e.g. "New Listing Detected"
	Description string    // display name and formatted price
	Link        string    // canonical marketplace asset page ("" for lifecycle messages)
	ImageURL    string    // resolved image reference ("" for lifecycle messages)
	PublishedAt time.Time // publish time
}

// ListingNotifier publishes notifications to the external chat sink.
//
// Delivery is once-only per listing: a failed publish is logged by the
// caller and never retried.
type ListingNotifier interface {
	NotifyListing(ctx context.Context, n Notification) error
}
