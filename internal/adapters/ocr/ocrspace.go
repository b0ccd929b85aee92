package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/labelscan/allergen-scanner/internal/domain"
)

const DefaultURL = "https://api.ocr.space/parse/image"

// Request fields sent with every call. Engine 2 handles printed labels
// better; scale helps with small ingredient print.
const (
	fieldLanguage = "eng"
	fieldScale    = "true"
	fieldIsTable  = "false"
	fieldEngine   = "2"
)

const maxErrorSnippet = 240

type SpaceClient struct {
	url        string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	log        zerolog.Logger
}

type Option func(*SpaceClient)

func WithURL(url string) Option {
	return func(c *SpaceClient) { c.url = url }
}

func WithTimeout(d time.Duration) Option {
	return func(c *SpaceClient) { c.timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *SpaceClient) { c.httpClient = hc }
}

// NewSpaceClient builds an OCR.space client. A missing API key is a
// configuration error and is rejected here rather than per request.
func NewSpaceClient(apiKey string, log zerolog.Logger, opts ...Option) (*SpaceClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ocrspace: api key is required (set OCRSPACE_API_KEY)")
	}
	c := &SpaceClient{
		url:        DefaultURL,
		apiKey:     apiKey,
		timeout:    30 * time.Second,
		httpClient: &http.Client{},
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ExtractText sends the image to OCR.space and returns the recognized
// text. One best-effort attempt, no retry, no caching.
func (c *SpaceClient) ExtractText(ctx context.Context, image []byte) (string, error) {
	body, contentType, err := buildForm(image)
	if err != nil {
		return "", fmt.Errorf("ocrspace: build request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, body)
	if err != nil {
		return "", fmt.Errorf("ocrspace: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("ocr.space unreachable")
		return "", &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	return c.parseBody(resp)
}

func buildForm(image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, "", err
	}
	if _, err = fw.Write(image); err != nil {
		return nil, "", err
	}
	for k, v := range map[string]string{
		"language":  fieldLanguage,
		"scale":     fieldScale,
		"isTable":   fieldIsTable,
		"OCREngine": fieldEngine,
	} {
		if err = w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err = w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *SpaceClient) parseBody(resp *http.Response) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &domain.NetworkError{Err: err}
	}

	var pr parseResponse
	if jsonErr := decodeResponse(raw, &pr); jsonErr != nil {
		snippet := errorSnippet(raw)
		c.log.Error().Int("status", resp.StatusCode).Str("body", snippet).Msg("ocr.space returned non-JSON body")
		return "", &domain.UpstreamError{
			Status:  resp.StatusCode,
			Message: "non-JSON response: " + snippet,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.UpstreamError{Status: resp.StatusCode, Message: pr.errorMessage()}
	}

	if pr.IsErroredOnProcessing {
		c.log.Error().Str("cause", pr.errorMessage()).Msg("ocr.space processing error")
		return "", &domain.UpstreamError{Message: pr.errorMessage()}
	}

	var parts []string
	for _, res := range pr.ParsedResults {
		if t := strings.TrimSpace(res.ParsedText); t != "" {
			parts = append(parts, res.ParsedText)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", &domain.UpstreamError{Message: "ocr returned empty text"}
	}
	return text, nil
}

func decodeResponse(raw []byte, pr *parseResponse) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("not a JSON object")
	}
	return json.Unmarshal(trimmed, pr)
}

func errorSnippet(raw []byte) string {
	s := strings.ReplaceAll(string(raw), "\n", " ")
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet]
	}
	return s
}
