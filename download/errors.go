package download

import "fmt"

// NotFoundError means the remote server has no such accession.
type NotFoundError struct {
	ID         string
	URL        string
	StatusCode int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found at %s (HTTP %d)", e.ID, e.URL, e.StatusCode)
}

// NetworkError covers transport failures and unexpected HTTP statuses. A zero
// StatusCode means no response was received.
type NetworkError struct {
	ID         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s from %s: HTTP %d", e.ID, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s from %s: %v", e.ID, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// CacheWriteError means the cache or temp directory could not be written.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("writing cache file %s: %v", e.Path, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }
