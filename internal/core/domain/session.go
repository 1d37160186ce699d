package domain

import (
	"errors"
	"time"
)

const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleArtisan = "artisan"
)

// Artisan approval states carried in the session token.
const (
	ArtisanNone     = "none"
	ArtisanPending  = "pending"
	ArtisanApproved = "approved"
	ArtisanRejected = "rejected"
)

// ErrAuthRejected marks an upstream response of 401 or 403. The cart store
// treats it as "session silently expired": the stored token is deleted and no
// user-visible error is raised.
var ErrAuthRejected = errors.New("authorization rejected")

// ErrUpstreamUnavailable marks a transient upstream failure (network error or
// 5xx) that is not an authorization problem.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Claims are the fields decoded from the bearer token. They are advisory
// only: the token signature is never verified here, so claims gate UI
// behaviour and the decision to attempt remote sync, never authorization.
// The upstream API re-validates the token on every protected call.
type Claims struct {
	Subject       string `json:"id"`
	Role          string `json:"role"`
	Name          string `json:"name"`
	ExpiresAt     int64  `json:"exp"`
	ArtisanStatus string `json:"artisanStatus"`
}

// Valid reports whether the claims carry an expiry strictly in the future.
// A token without an expiry is treated as already expired.
func (c Claims) Valid(now time.Time) bool {
	return c.ExpiresAt > 0 && time.Unix(c.ExpiresAt, 0).After(now)
}
