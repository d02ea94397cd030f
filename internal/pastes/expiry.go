package pastes

import (
	"strconv"
	"strings"
	"time"
)

// absoluteExpiryLayout is the accepted format for the "expires" form field:
// a calendar date plus an hour of day, e.g. "2026-09-01 18".
const absoluteExpiryLayout = "2006-01-02 15"

// ExpiryPolicy holds the server-side expiration bounds. MaxAgeHours of zero
// means the operator set no ceiling on upload lifetime.
type ExpiryPolicy struct {
	MaxAgeHours      int64
	AllowEverlasting bool
}

// Unlimited reports whether the policy has no finite horizon.
func (p ExpiryPolicy) Unlimited() bool {
	return p.MaxAgeHours <= 0
}

// ExpiryHint is the parsed client request for an expiration time. The zero
// value means the client gave no hint.
type ExpiryHint struct {
	// Hours is a requested lifetime in hours; values <= 0 ask for "never".
	Hours    int64
	HasHours bool
	// At is a requested absolute expiration instant.
	At    time.Time
	HasAt bool
}

// ParseExpiryHint interprets the raw "expires" and "expires_hours" form
// values. An hours count takes precedence over an absolute date when both are
// sent. Unparseable values are treated as no hint rather than rejected, so a
// garbled field degrades to the server default instead of failing the upload.
func ParseExpiryHint(expires, expiresHours string) ExpiryHint {
	if h := strings.TrimSpace(expiresHours); h != "" {
		if hours, err := strconv.ParseInt(h, 10, 64); err == nil {
			return ExpiryHint{Hours: hours, HasHours: true}
		}
	}
	if a := strings.TrimSpace(expires); a != "" {
		if at, err := time.ParseInLocation(absoluteExpiryLayout, a, time.Local); err == nil {
			return ExpiryHint{At: at, HasAt: true}
		}
	}
	return ExpiryHint{}
}

// ComputeExpiry resolves a client hint against the server policy at the given
// instant. It returns the absolute expiration time, or nil for an upload that
// never expires. The result, when present, is always strictly after now and
// never further out than the policy horizon.
func ComputeExpiry(hint ExpiryHint, now time.Time, policy ExpiryPolicy) *time.Time {
	switch {
	case hint.HasHours && hint.Hours > 0:
		return clampExpiry(now.Add(time.Duration(hint.Hours)*time.Hour), now, policy)

	case hint.HasHours:
		// Hours <= 0 is an explicit request for an everlasting upload.
		if policy.AllowEverlasting || policy.Unlimited() {
			return nil
		}
		return horizonExpiry(now, policy)

	case hint.HasAt:
		if !hint.At.After(now) {
			// A past instant is nonsense; fall through to the no-hint rules.
			return ComputeExpiry(ExpiryHint{}, now, policy)
		}
		return clampExpiry(hint.At, now, policy)

	default:
		// No hint: never expires unless the server forbids everlasting
		// uploads, in which case the horizon applies.
		if policy.AllowEverlasting || policy.Unlimited() {
			return nil
		}
		return horizonExpiry(now, policy)
	}
}

func clampExpiry(at, now time.Time, policy ExpiryPolicy) *time.Time {
	if !policy.Unlimited() {
		if max := now.Add(time.Duration(policy.MaxAgeHours) * time.Hour); at.After(max) {
			return &max
		}
	}
	return &at
}

func horizonExpiry(now time.Time, policy ExpiryPolicy) *time.Time {
	at := now.Add(time.Duration(policy.MaxAgeHours) * time.Hour)
	return &at
}
