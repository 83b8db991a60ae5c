package services

import "fmt"

// ExtractionError means the engine could not resolve or parse a URL.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not extract video info from %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// DownloadError wraps any failure of a background transfer.
type DownloadError struct {
	JobID string
	Err   error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s failed: %v", e.JobID, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
