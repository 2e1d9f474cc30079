package cafedata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestLoader(body string, status int) *Loader {
	return &Loader{httpClient: &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(body)),
			}, nil
		}),
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleDoc = `{"cafes":[
	{"id":"c1","name":"Cafe One","lat":-12.05,"lng":-77.04,"rating":4.2,"hours":"7-19"},
	{"id":"c2","name":"Cafe Two","lat":-12.06,"lng":-77.03,"address":"Av. Larco 1"},
	{"id":"c1","name":"Duplicate","lat":0,"lng":0}
]}`

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cafes.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	cat := NewLoader().Load(context.Background(), discardLogger(), path)

	if cat.Len() != 2 {
		t.Fatalf("len = %d, want 2 (duplicate skipped)", cat.Len())
	}
	c, ok := cat.Lookup("c1")
	if !ok || c.Name != "Cafe One" || c.Rating != 4.2 || c.Hours != "7-19" {
		t.Errorf("c1 = %+v", c)
	}
}

func TestLoadFromURL(t *testing.T) {
	l := newTestLoader(sampleDoc, http.StatusOK)

	cafes, err := l.Fetch(context.Background(), "https://cdn.test/cafes.json")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(cafes) != 3 {
		t.Errorf("len = %d, want 3 raw records", len(cafes))
	}
}

func TestLoadFailuresLeaveCatalogEmpty(t *testing.T) {
	tests := []struct {
		name   string
		loader *Loader
		source string
	}{
		{"missing file", NewLoader(), filepath.Join(t.TempDir(), "nope.json")},
		{"http error", newTestLoader("oops", http.StatusInternalServerError), "https://cdn.test/cafes.json"},
		{"malformed json", newTestLoader("{cafes:", http.StatusOK), "https://cdn.test/cafes.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.loader.Fetch(context.Background(), tt.source)
			if !errors.Is(err, ErrLoad) {
				t.Errorf("Fetch err = %v, want ErrLoad", err)
			}

			cat := tt.loader.Load(context.Background(), discardLogger(), tt.source)
			if cat == nil || cat.Len() != 0 {
				t.Errorf("catalog = %v, want empty", cat)
			}
		})
	}
}
