package imageresolve

import "strings"

// imageFieldPriority is the ordered list of metadata fields scanned for a
// raw image reference before the files list is consulted.
var imageFieldPriority = []string{"image", "image_url", "thumbnail", "media"}

// extractCandidate scans the metadata map for a raw image reference.
//
// Priority fields are checked first; then the first entry of a "files" list
// whose declared media type matches an image pattern is tried, checking its
// "src" and "url" sub-fields. Candidates may be plain strings or objects
// exposing a "url" string. Any URL fragment suffix is stripped.
func extractCandidate(metadata map[string]any) (string, bool) {
	if metadata == nil {
		return "", false
	}

	for _, field := range imageFieldPriority {
		if raw, ok := candidateString(metadata[field]); ok {
			return stripFragment(raw), true
		}
	}

	files, ok := metadata["files"].([]any)
	if !ok {
		return "", false
	}

	for _, entry := range files {
		file, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		mediaType, _ := file["mediaType"].(string)
		if !isImageMediaType(mediaType) {
			continue
		}

		if raw, ok := candidateString(file["src"]); ok {
			return stripFragment(raw), true
		}
		if raw, ok := candidateString(file["url"]); ok {
			return stripFragment(raw), true
		}
	}

	return "", false
}

// candidateString unwraps a metadata value into a URL string. Accepted
// shapes are a non-empty string, or an object exposing a "url" string.
func candidateString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		if val != "" {
			return val, true
		}
	case map[string]any:
		if u, ok := val["url"].(string); ok && u != "" {
			return u, true
		}
	}

	return "", false
}

// stripFragment removes a trailing "#fragment" suffix from the reference.
func stripFragment(s string) string {
	if i := strings.Index(s, "#"); i >= 0 {
		return s[:i]
	}
	return s
}

// isImageMediaType reports whether a declared or served media type matches
// an image pattern.
func isImageMediaType(mediaType string) bool {
	return strings.Contains(strings.ToLower(mediaType), "image")
}
