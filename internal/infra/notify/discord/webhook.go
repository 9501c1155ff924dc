// Package discord publishes listing notifications to a Discord webhook as
// a single rich embed per message.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gabapcia/listingwatch/internal/listingproc"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrPublishRejected indicates the webhook endpoint answered with a non-2xx
// status.
var ErrPublishRejected = errors.New("webhook rejected the notification")

// embedColor is the accent color of listing embeds (green).
const embedColor = 0x2ECC71

// Webhook publishes notifications to a Discord-compatible webhook URL.
type Webhook struct {
	webhookURL string
	username   string
	httpClient *retryablehttp.Client
}

var _ listingproc.ListingNotifier = (*Webhook)(nil)

type config struct {
	username string
}

// Option configures the webhook publisher.
type Option func(*config)

// New creates a webhook publisher.
func New(httpClient *retryablehttp.Client, webhookURL string, opts ...Option) *Webhook {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Webhook{
		webhookURL: webhookURL,
		username:   cfg.username,
		httpClient: httpClient,
	}
}

// WithUsername overrides the webhook's default display name.
func WithUsername(name string) Option {
	return func(c *config) {
		c.username = name
	}
}

// embedImage is the image block of a Discord embed.
type embedImage struct {
	URL string `json:"url"`
}

// embed is a single Discord rich embed.
type embed struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	URL         string      `json:"url,omitempty"`
	Timestamp   string      `json:"timestamp"`
	Color       int         `json:"color"`
	Image       *embedImage `json:"image,omitempty"`
}

// webhookPayload is the request body accepted by Discord webhooks.
type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

// NotifyListing implements listingproc.ListingNotifier.
func (w *Webhook) NotifyListing(ctx context.Context, n listingproc.Notification) error {
	e := embed{
		Title:       n.Title,
		Description: n.Description,
		URL:         n.Link,
		Timestamp:   n.PublishedAt.UTC().Format(time.RFC3339),
		Color:       embedColor,
	}
	if n.ImageURL != "" {
		e.Image = &embedImage{URL: n.ImageURL}
	}

	body, err := json.Marshal(webhookPayload{
		Username: w.username,
		Embeds:   []embed{e},
	})
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status %d", ErrPublishRejected, res.StatusCode)
	}

	return nil
}
