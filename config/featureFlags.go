package config

import (
	"os"
	"strings"
)

// SyncInlineFallback runs a queued sync run in-process when Pub/Sub is not
// configured (local development, single-instance deployments).
//
// Set via env:
// - SAP_SYNC_INLINE=true
func SyncInlineFallback() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SAP_SYNC_INLINE")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SyncDomainsFromEnv limits which sync domains the scheduler endpoint may run.
//
// Set via env:
// - SAP_SYNC_DOMAINS="item,bp-S,bp-C,bp-L"
//
// Domain codes are case-sensitive; an empty value allows all known domains.
func SyncDomainAllowed(domain string) bool {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return false
	}
	raw := os.Getenv("SAP_SYNC_DOMAINS")
	if strings.TrimSpace(raw) == "" {
		return true
	}
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == domain {
			return true
		}
	}
	return false
}
