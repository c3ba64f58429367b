package woocommerce

import (
	"net/http"
	"strconv"

	"github.com/dunglas/httpsfv"
)

// parseRateLimitReset extracts the seconds-until-reset hint from a 429
// response. CDN and WAF layers in front of WordPress hosts speak the draft
// RateLimit structured header (RFC 8941 Dictionary, e.g.
// "limit=100, remaining=0, reset=30"); plain Retry-After is the fallback.
// Returns 0 when neither header carries a usable value.
func parseRateLimitReset(h http.Header) int {
	if v := h.Get("RateLimit"); v != "" {
		if reset := resetFromDictionary(v); reset > 0 {
			return reset
		}
	}

	// Retry-After: delta-seconds form only; HTTP-date is not worth the
	// parse here since the value feeds an advisory error message.
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return secs
		}
	}

	return 0
}

// resetFromDictionary parses the reset member of a RateLimit dictionary.
func resetFromDictionary(header string) int {
	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return 0
	}

	member, ok := dict.Get("reset")
	if !ok {
		return 0
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return 0
	}

	switch v := item.Value.(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
