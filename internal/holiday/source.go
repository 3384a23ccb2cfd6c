package holiday

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxDocumentSize     = 32 << 20

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	referer   = "https://www.delawareohio.net"
)

// Source provides the plain text of the holiday schedule document
type Source interface {
	Fetch(ctx context.Context) (string, error)
	Name() string
}

// HTTPSource downloads the published holiday document
type HTTPSource struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPSource creates a new HTTP document source. A zero timeout uses 30s.
func NewHTTPSource(url string, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Name implements Source
func (s *HTTPSource) Name() string {
	return s.url
}

// Fetch implements Source
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	// The city site rejects requests without browser-like headers
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)

	s.logger.Debug("Fetching holiday document", zap.String("url", s.url))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch holiday document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("holiday document request failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return "", fmt.Errorf("failed to read holiday document: %w", err)
	}

	s.logger.Info("Holiday document downloaded",
		zap.String("url", s.url),
		zap.Int("bytes", len(data)),
		zap.String("content_type", resp.Header.Get("Content-Type")))

	return ExtractText(data)
}

// FileSource reads the holiday document from a local PDF or text file
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a new file document source
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	return &FileSource{
		path:   path,
		logger: logger,
	}
}

// Name implements Source
func (s *FileSource) Name() string {
	return s.path
}

// Fetch implements Source
func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to read holiday document: %w", err)
	}

	s.logger.Info("Holiday document loaded from file",
		zap.String("file", s.path),
		zap.Int("bytes", len(data)))

	return ExtractText(data)
}

// CompositeSource tries a primary source and falls back to a secondary one
type CompositeSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(primary, fallback Source, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Name implements Source
func (cs *CompositeSource) Name() string {
	return cs.primary.Name()
}

// Fetch implements Source
func (cs *CompositeSource) Fetch(ctx context.Context) (string, error) {
	text, err := cs.primary.Fetch(ctx)
	if err == nil {
		return text, nil
	}

	cs.logger.Warn("Primary holiday source failed, falling back",
		zap.String("primary", cs.primary.Name()),
		zap.String("fallback", cs.fallback.Name()),
		zap.Error(err))

	text, fallbackErr := cs.fallback.Fetch(ctx)
	if fallbackErr != nil {
		return "", fmt.Errorf("primary and fallback both failed: primary=%w, fallback=%v", err, fallbackErr)
	}
	return text, nil
}

// ExtractText returns the plain text of a document. PDF input is extracted row by row,
// anything else is treated as UTF-8 text.
func ExtractText(data []byte) (string, error) {
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return string(data), nil
	}
	return extractPDFText(data)
}

func extractPDFText(data []byte) (text string, err error) {
	// the pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to extract PDF text: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
			}
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
