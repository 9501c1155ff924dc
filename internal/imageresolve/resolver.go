// Package imageresolve turns raw, heterogeneous on-chain metadata image
// fields into a verified, renderable image URL. Resolution tries three
// strategies in order: parsed metadata with gateway expansion, a
// fingerprint-keyed image service, and a trusted preview service. Every
// failure path degrades to a fixed placeholder; the resolver never fails.
package imageresolve

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	httptransport "github.com/gabapcia/listingwatch/internal/pkg/transport/http"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultPlaceholderURL = "https://placehold.co/600x600.png"

	defaultProbeTimeout = 5 * time.Second

	// fingerprintVariants is how many indexed sub-resources are tried
	// against the fingerprint-keyed image service.
	fingerprintVariants = 3
)

// defaultGateways is the ordered public gateway list used to expand
// distributed-storage references. The CDN-backed gateway goes first; the
// downstream chat renderer is measurably more reliable with it.
var defaultGateways = []string{
	"https://cloudflare-ipfs.com/ipfs/",
	"https://ipfs.io/ipfs/",
	"https://dweb.link/ipfs/",
	"https://gateway.pinata.cloud/ipfs/",
}

// Resolver produces one renderable image URL per asset.
type Resolver interface {
	// Resolve returns a verified image URL for the asset's metadata and
	// fingerprint, or the placeholder URL when every strategy fails. It
	// never returns an error and never returns a URL that failed
	// verification (the trusted preview service excepted).
	Resolve(ctx context.Context, metadata map[string]any, fingerprint string) string
}

type resolver struct {
	httpClient *retryablehttp.Client

	gateways       []string
	placeholderURL string

	fingerprintServiceURL string // "" disables the fingerprint strategy
	previewServiceURL     string // "" disables the preview strategy
}

var _ Resolver = (*resolver)(nil)

type config struct {
	httpClient            *retryablehttp.Client
	gateways              []string
	placeholderURL        string
	fingerprintServiceURL string
	previewServiceURL     string
}

// Option configures the resolver.
type Option func(*config)

// New creates an image resolver. Without options it probes with a dedicated
// 5s-timeout HTTP client, expands ipfs references against the default
// gateway list, and falls back to the default placeholder.
func New(opts ...Option) *resolver {
	cfg := config{
		gateways:       defaultGateways,
		placeholderURL: defaultPlaceholderURL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.httpClient == nil {
		// Probes carry their own short timeout and no transport retries:
		// gateway iteration is the retry mechanism here.
		cfg.httpClient = httptransport.NewClient(
			httptransport.WithTimeout(defaultProbeTimeout),
			httptransport.WithRetryMax(0),
		)
	}

	return &resolver{
		httpClient:            cfg.httpClient,
		gateways:              cfg.gateways,
		placeholderURL:        cfg.placeholderURL,
		fingerprintServiceURL: strings.TrimSuffix(cfg.fingerprintServiceURL, "/"),
		previewServiceURL:     cfg.previewServiceURL,
	}
}

// WithHTTPClient sets the client used for verification probes.
func WithHTTPClient(c *retryablehttp.Client) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

// WithGateways overrides the ordered gateway list used to expand
// distributed-storage references. Order matters: candidates are verified
// first to last.
func WithGateways(gateways []string) Option {
	return func(cfg *config) {
		cfg.gateways = gateways
	}
}

// WithPlaceholderURL overrides the URL returned when resolution fails.
func WithPlaceholderURL(u string) Option {
	return func(cfg *config) {
		cfg.placeholderURL = u
	}
}

// WithFingerprintService enables the fingerprint-keyed resolution strategy
// against the given service base URL.
func WithFingerprintService(u string) Option {
	return func(cfg *config) {
		cfg.fingerprintServiceURL = u
	}
}

// WithPreviewService enables the preview-service strategy. The preview
// service is trusted to always return an image or its own placeholder, so
// its URLs are not probed.
func WithPreviewService(u string) Option {
	return func(cfg *config) {
		cfg.previewServiceURL = u
	}
}

// Resolve implements Resolver.
func (r *resolver) Resolve(ctx context.Context, metadata map[string]any, fingerprint string) string {
	if u, ok := r.resolveFromMetadata(ctx, metadata); ok {
		return u
	}

	if u, ok := r.resolveFromFingerprint(ctx, fingerprint); ok {
		return u
	}

	if u, ok := r.resolveFromPreview(metadata); ok {
		return u
	}

	return r.placeholderURL
}

// resolveFromMetadata extracts the raw image reference from the metadata,
// normalizes its scheme, and verifies the candidate URL(s). Distributed
// storage references are tried against every configured gateway in order.
func (r *resolver) resolveFromMetadata(ctx context.Context, metadata map[string]any) (string, bool) {
	raw, ok := extractCandidate(metadata)
	if !ok {
		return "", false
	}

	ref, ok := normalizeReference(raw)
	if !ok {
		return "", false
	}

	// Data URLs embed the image bytes; there is nothing to probe.
	if ref.isData {
		return ref.direct, true
	}

	if ref.direct != "" {
		if r.verifyImage(ctx, ref.direct) {
			return ref.direct, true
		}
		return "", false
	}

	for _, candidate := range gatewayURLs(r.gateways, ref.cid, ref.path) {
		if r.verifyImage(ctx, candidate) {
			return candidate, true
		}
	}

	return "", false
}

// resolveFromFingerprint tries a small number of indexed sub-resources of
// the fingerprint-keyed image service, verifying each the same way.
func (r *resolver) resolveFromFingerprint(ctx context.Context, fingerprint string) (string, bool) {
	if r.fingerprintServiceURL == "" || fingerprint == "" {
		return "", false
	}

	for i := range fingerprintVariants {
		candidate := fmt.Sprintf("%s/%s/%d", r.fingerprintServiceURL, fingerprint, i)
		if r.verifyImage(ctx, candidate) {
			return candidate, true
		}
	}

	return "", false
}

// resolveFromPreview builds a preview-service URL embedding the normalized
// original reference as a query parameter. No probe: the service is trusted
// to return an image or its own placeholder.
func (r *resolver) resolveFromPreview(metadata map[string]any) (string, bool) {
	if r.previewServiceURL == "" {
		return "", false
	}

	raw, ok := extractCandidate(metadata)
	if !ok {
		return "", false
	}

	ref, ok := normalizeReference(raw)
	if !ok || ref.isData {
		return "", false
	}

	target := ref.direct
	if target == "" {
		candidates := gatewayURLs(r.gateways, ref.cid, ref.path)
		if len(candidates) == 0 {
			return "", false
		}
		target = candidates[0]
	}

	return r.previewServiceURL + "?url=" + url.QueryEscape(target), true
}
