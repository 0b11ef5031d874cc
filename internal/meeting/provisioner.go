// Package meeting provisions video-consultation join links. The booking flow
// treats the provisioner as best effort: any failure degrades to a fallback
// link and never blocks or rolls back a reservation.
package meeting

import (
	"context"
	"time"
)

const (
	// FallbackLink is substituted when provisioning fails at runtime.
	FallbackLink = "https://meet.google.com/new"
	// PlaceholderLink is returned when no credentials are configured, so dev
	// environments get a deterministic value.
	PlaceholderLink = "https://zoom.us/j/demo_link_creds_missing"
)

// Provisioner creates a join link for a consultation starting at the given time.
type Provisioner interface {
	CreateLink(ctx context.Context, topic string, startAt time.Time) (string, error)
}

// Static always returns the same link. It is the built-in no-op implementation
// for environments without meeting credentials.
type Static struct {
	URL string
}

func NewStatic(url string) Static {
	if url == "" {
		url = PlaceholderLink
	}
	return Static{URL: url}
}

func (s Static) CreateLink(context.Context, string, time.Time) (string, error) {
	return s.URL, nil
}
