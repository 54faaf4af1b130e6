package sync

import "fmt"

// FetchError classifies a transient failure while talking to an external
// source (network, timeout, token acquisition, malformed payload). The
// cycle aborts without advancing the watermark and the next scheduled
// tick retries from the same cursor.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for source %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistError classifies a storage write failure. The batch is
// considered not applied and the watermark is untouched.
type PersistError struct {
	Source string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist failed for source %s: %v", e.Source, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
