package profile

import "fmt"

// FetchError reports that a profile page could not be captured after all
// retry attempts. Callers skip the identifier and continue the worklist.
type FetchError struct {
	Identifier string
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for %s after %d attempts: %v", e.Identifier, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError reports that a fetched page did not yield the minimum
// fields a record requires. The record is dropped, the run continues.
type ValidationError struct {
	Identifier string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile data for %s: %s", e.Identifier, e.Reason)
}
