// Package cafedata loads the static cafe document, a JSON object of the
// form {"cafes": [...]}, from a file path or an http(s) URL.
package cafedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/playperu/cafefinder/internal/cafefinder"
)

// ErrLoad is returned when the document cannot be fetched or decoded.
var ErrLoad = errors.New("loading cafe data")

const maxDocumentBytes = 8 << 20

type document struct {
	Cafes []cafefinder.Cafe `json:"cafes"`
}

type Loader struct {
	httpClient *http.Client
}

func NewLoader() *Loader {
	return &Loader{httpClient: &http.Client{Timeout: 10 * time.Second}}
}

// Fetch reads and decodes the document at source.
func (l *Loader) Fetch(ctx context.Context, source string) ([]cafefinder.Cafe, error) {
	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	var doc document
	if err := json.NewDecoder(io.LimitReader(rc, maxDocumentBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrLoad, source, err)
	}
	return doc.Cafes, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_ = res.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", source, res.StatusCode)
	}
	return res.Body, nil
}

// Load builds the catalog for the session. Load never fails: a data source
// problem is logged and leaves the catalog empty, and bad records are
// skipped with a warning.
func (l *Loader) Load(ctx context.Context, logger *slog.Logger, source string) *cafefinder.Catalog {
	cafes, err := l.Fetch(ctx, source)
	if err != nil {
		logger.Error("failed to load cafe data", "source", source, "error", err)
		return cafefinder.EmptyCatalog()
	}

	cat, problems := cafefinder.NewCatalog(cafes)
	for _, p := range problems {
		logger.Warn("skipping cafe record", "source", source, "error", p)
	}
	logger.Info("loaded cafe data", "source", source, "cafes", cat.Len())
	return cat
}
