package glean

import "strings"

// backendMarker is the infix distinguishing backend API hostnames from
// front-end hostnames.
const backendMarker = "-be."

const (
	serviceSuffix = ".glean.com"
	appTenantBase = "https://linkedin-be.glean.com"
)

// NormalizeDomain maps a user-facing service domain to its backend API
// base URL. Total and idempotent: any string in, including its own
// output, yields a stable result; the empty string stays empty.
//
//	app.glean.com        -> https://linkedin-be.glean.com
//	acme.glean.com       -> https://acme-be.glean.com
//	acme                 -> https://acme-be.glean.com
//	acme-be.glean.com    -> https://acme-be.glean.com
func NormalizeDomain(domain string) string {
	cleaned := strings.TrimPrefix(domain, "https://")
	cleaned = strings.TrimPrefix(cleaned, "http://")
	cleaned = strings.TrimSuffix(cleaned, "/")
	if cleaned == "" {
		return ""
	}

	// Already backend form.
	if strings.Contains(cleaned, backendMarker) {
		return "https://" + cleaned
	}

	// The generic app host maps to the single known tenant backend.
	if cleaned == "app.glean.com" || strings.HasPrefix(cleaned, "app.") {
		return appTenantBase
	}

	// <tenant>.glean.com front-end form.
	if strings.HasSuffix(cleaned, serviceSuffix) {
		tenant := strings.TrimSuffix(cleaned, serviceSuffix)
		return "https://" + tenant + "-be" + serviceSuffix
	}

	// Bare tenant name.
	if !strings.Contains(cleaned, ".") {
		return "https://" + cleaned + "-be" + serviceSuffix
	}

	// Unknown format, pass through.
	return "https://" + cleaned
}
