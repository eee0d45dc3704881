package glean

import (
	"net/http"
	"strings"
)

// AuthHeaders builds request headers for the Client API family. Bearer
// auth plus JSON content negotiation; OAuth tokens additionally carry
// the X-Glean-Auth-Type marker, Glean-issued tokens must not.
// Callers never log the token itself; use config.TokenPreview for
// diagnostics.
func AuthHeaders(token, tokenType string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	if tokenType == "oauth" {
		h.Set("X-Glean-Auth-Type", "OAUTH")
	}
	return h
}

// IndexingHeaders builds request headers for the Indexing API, which
// takes bearer auth without the auth-type marker.
func IndexingHeaders(token string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	return h
}
