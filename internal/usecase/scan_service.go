package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/labelscan/allergen-scanner/internal/domain"
	"github.com/labelscan/allergen-scanner/internal/ports"
)

// PreviewLimit caps the extracted-text preview shown to the user, in runes.
const PreviewLimit = 600

const DefaultMaxConcurrentOCR = 3

type ScanService struct {
	ocr     ports.OCRPort
	matcher ports.MatcherPort
	metrics ports.MetricsSink
	log     zerolog.Logger

	ocrSem chan struct{} // limit OCR concurrency
}

func NewScanService(ocr ports.OCRPort, matcher ports.MatcherPort, metrics ports.MetricsSink, log zerolog.Logger, maxConcurrentOCR int) *ScanService {
	if maxConcurrentOCR <= 0 {
		maxConcurrentOCR = DefaultMaxConcurrentOCR
	}
	return &ScanService{
		ocr:     ocr,
		matcher: matcher,
		metrics: metrics,
		log:     log,
		ocrSem:  make(chan struct{}, maxConcurrentOCR),
	}
}

// Scan runs one upload through OCR and matching. OCR failure is not an
// error return: it comes back as an unsuccessful OCRResult so the caller
// can render the cause and stay alive for the next request. The matcher
// is never invoked on a failed extraction.
func (s *ScanService) Scan(ctx context.Context, req domain.ScanRequest) (domain.ScanResult, error) {
	start := time.Now()

	if len(req.Image) == 0 {
		return domain.ScanResult{}, domain.ErrEmptyImage
	}
	if len(req.Allergens) == 0 {
		return domain.ScanResult{}, domain.ErrNoAllergens
	}

	s.metrics.ScanStarted()

	raw, err := s.runOCR(ctx, req.Image)
	if err != nil {
		s.metrics.ScanFailed(failureReason(err))
		return domain.ScanResult{
			OCR:     domain.OCRResult{ErrorMessage: err.Error()},
			Elapsed: time.Since(start),
		}, nil
	}

	norm := normalize(raw)
	result := s.matcher.Match(norm, req.Allergens)

	// The original text may be long; the rendered preview re-highlights
	// only its head, using the already-resolved matched set.
	preview := s.matcher.Match(truncate(norm, PreviewLimit), result.Matched)

	s.metrics.AllergensMatched(len(result.Matched))
	s.metrics.ScanDuration(time.Since(start))
	s.log.Info().
		Int("allergens", len(req.Allergens)).
		Int("matched", len(result.Matched)).
		Dur("elapsed", time.Since(start)).
		Msg("scan complete")

	return domain.ScanResult{
		OCR:     domain.OCRResult{RawText: raw, Success: true},
		Match:   result,
		Preview: preview.Highlighted,
		Elapsed: time.Since(start),
	}, nil
}

func (s *ScanService) runOCR(ctx context.Context, img []byte) (string, error) {
	s.ocrSem <- struct{}{}
	defer func() { <-s.ocrSem }()

	txt, err := s.ocr.ExtractText(ctx, img)
	if err != nil {
		s.log.Error().Err(err).Msg("ocr failed")
		return "", err
	}
	return strings.TrimSpace(txt), nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func failureReason(err error) string {
	var ne *domain.NetworkError
	if errors.As(err, &ne) {
		return "network"
	}
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		return "upstream"
	}
	return "other"
}
