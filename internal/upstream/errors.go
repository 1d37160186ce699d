package upstream

import (
	"fmt"
	"net/http"

	"github.com/handmadehub/storefront/internal/core/domain"
)

// StatusError reports a non-success status from the upstream marketplace
// API. It matches domain.ErrAuthRejected for 401/403 and
// domain.ErrUpstreamUnavailable for 5xx, so callers classify with errors.Is
// instead of inspecting codes.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case domain.ErrAuthRejected:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	case domain.ErrUpstreamUnavailable:
		return e.Code >= 500
	}
	return false
}
