package imageresolve

import (
	"context"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// verifyImage issues a metadata-only probe against the candidate URL and
// accepts it only when the response status is in the 200-399 range and the
// declared content type matches an image pattern. Any transport failure
// rejects the candidate.
func (r *resolver) verifyImage(ctx context.Context, candidate string) bool {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, candidate, nil)
	if err != nil {
		return false
	}

	res, err := r.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusBadRequest {
		return false
	}

	return isImageMediaType(res.Header.Get("Content-Type"))
}
