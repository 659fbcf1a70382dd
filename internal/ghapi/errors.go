package ghapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
)

// statusOf extracts the HTTP status from a REST error response, or 0.
func statusOf(err error) int {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the REST API. Callers use
// this to skip resources deleted mid-run instead of failing the audit.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsAuthError reports whether err is an authentication failure.
// Retrying with the same credentials cannot succeed.
func IsAuthError(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// isPrimaryRateLimit reports whether err is a primary rate limit
// rejection and returns the window reset time when it is.
func isPrimaryRateLimit(err error) (time.Time, bool) {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return rle.Rate.Reset.Time, true
	}
	return time.Time{}, false
}

// isSecondaryRateLimit reports whether err is a secondary (abuse) rate
// limit rejection and returns the server's retry-after hint when one was
// provided. GraphQL rate limit errors arrive as plain errors, so message
// matching covers those.
func isSecondaryRateLimit(err error) (time.Duration, bool) {
	var abuse *github.AbuseRateLimitError
	if errors.As(err, &abuse) {
		var after time.Duration
		if abuse.RetryAfter != nil {
			after = *abuse.RetryAfter
		}
		return after, true
	}

	switch sc := statusOf(err); sc {
	case http.StatusForbidden, http.StatusTooManyRequests:
		return 0, looksLikeRateLimit(err.Error())
	case 0:
		// Not a REST error response; GraphQL errors land here.
		return 0, looksLikeRateLimit(err.Error())
	}
	return 0, false
}

// looksLikeRateLimit matches the message patterns GitHub uses for
// secondary rate limit responses.
func looksLikeRateLimit(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "rate limit") ||
		strings.Contains(m, "secondary") ||
		strings.Contains(m, "abuse") ||
		strings.Contains(m, "too quickly") ||
		strings.Contains(m, "429")
}

// isTransient reports whether err is a server-side or network failure
// worth retrying. Context cancellation is never transient: it means the
// caller gave up.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if sc := statusOf(err); sc >= http.StatusInternalServerError {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	m := strings.ToLower(err.Error())
	return strings.Contains(m, "connection reset") ||
		strings.Contains(m, "unexpected eof") ||
		strings.Contains(m, "timeout")
}

// IsSSOUnavailable reports whether err means the organization's SAML
// identities cannot be read: either no provider is configured at the
// organization level (an enterprise-level provider supersedes it) or the
// credentials lack the people-read scope. Audits degrade to empty SSO
// emails in that case rather than failing.
func IsSSOUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if statusOf(err) == http.StatusForbidden {
		return true
	}
	m := strings.ToLower(err.Error())
	return strings.Contains(m, "forbidden") ||
		strings.Contains(m, "resource not accessible") ||
		strings.Contains(m, "saml") ||
		strings.Contains(m, "does not have permission")
}
