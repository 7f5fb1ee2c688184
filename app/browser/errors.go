package browser

import "fmt"

// AuthError reports that the site rejected the configured credentials.
// It is not retried; in one-shot mode it aborts the run.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}
