package loader

import "fmt"

// LoadError indicates a dataset could not be fetched: an I/O or network failure,
// or a non-success HTTP status.
type LoadError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "load failed"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("load %s: unexpected status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
