package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ScanRequest is built at the transport boundary from raw form/JSON input
// and handed to the use case. Nothing in it outlives the request.
type ScanRequest struct {
	Image     []byte
	Allergens []string
	ShowText  bool
}

// OCRResult is the outcome of one call to the external OCR service.
type OCRResult struct {
	RawText      string
	Success      bool
	ErrorMessage string
}

// Segment is one slice of the rendered text. Allergen segments are the
// merged spans covered by at least one matched term.
type Segment struct {
	Text     string
	Allergen bool
}

// MatchResult is what the matcher produces for one text/allergen-list pair.
// Matched preserves the user's token order with duplicates removed.
type MatchResult struct {
	Matched     []string
	Segments    []Segment
	Highlighted string
}

// ScanResult is the full outcome of a scan. When OCR.Success is false the
// match fields are zero and Preview is empty.
type ScanResult struct {
	OCR     OCRResult
	Match   MatchResult
	Preview string
	Elapsed time.Duration
}

// SplitAllergens splits the raw comma-separated user input into tokens.
// Trimming, case folding and de-duplication happen in the matcher.
func SplitAllergens(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

var (
	ErrEmptyImage  = errors.New("no image provided")
	ErrNoAllergens = errors.New("no allergens provided")
)

// NetworkError means the OCR service could not be reached at all
// (connection failure or timeout).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "ocr request failed: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError means the OCR service answered, but unusably: non-2xx
// status, a non-JSON body, a processing error flag, or empty text.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ocr service error (status %d): %s", e.Status, e.Message)
	}
	return "ocr service error: " + e.Message
}
