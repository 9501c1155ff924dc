package imageresolve

import "strings"

// reference is a scheme-normalized image reference. Exactly one of the two
// shapes is populated: direct holds an absolute URL (http(s), data, or a
// resolved Arweave URL), while cid/path describe a distributed-storage
// object still needing gateway expansion.
type reference struct {
	direct string
	isData bool

	cid  string
	path string // leading "/", or ""
}

// normalizeReference classifies a raw image reference by scheme.
//
// Absolute HTTP(S) URLs and data URLs pass through unchanged. Arweave
// references are expanded against the arweave.net gateway. The three
// equivalent distributed-storage forms (ipfs://ipfs/<cid>, ipfs://<cid>,
// /ipfs/<cid>) all normalize to the same cid/path pair.
func normalizeReference(raw string) (reference, bool) {
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return reference{direct: raw}, true

	case strings.HasPrefix(raw, "data:"):
		return reference{direct: raw, isData: true}, true

	case strings.HasPrefix(raw, "ar://"):
		id := strings.TrimPrefix(raw, "ar://")
		if id == "" {
			return reference{}, false
		}
		return reference{direct: "https://arweave.net/" + id}, true

	default:
		cid, path, ok := parseIPFS(raw)
		if !ok {
			return reference{}, false
		}
		return reference{cid: cid, path: path}, true
	}
}

// parseIPFS extracts the content identifier and optional path from any of
// the three recognized ipfs reference forms.
func parseIPFS(raw string) (cid, path string, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(raw, "ipfs://ipfs/"):
		rest = strings.TrimPrefix(raw, "ipfs://ipfs/")
	case strings.HasPrefix(raw, "ipfs://"):
		rest = strings.TrimPrefix(raw, "ipfs://")
	case strings.HasPrefix(raw, "/ipfs/"):
		rest = strings.TrimPrefix(raw, "/ipfs/")
	default:
		return "", "", false
	}

	if rest == "" {
		return "", "", false
	}

	cid, sub, found := strings.Cut(rest, "/")
	if found && sub != "" {
		path = "/" + sub
	}

	return cid, path, true
}

// gatewayURLs expands a cid/path pair against the ordered gateway list.
func gatewayURLs(gateways []string, cid, path string) []string {
	urls := make([]string, 0, len(gateways))
	for _, gw := range gateways {
		urls = append(urls, gw+cid+path)
	}
	return urls
}
