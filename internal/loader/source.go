package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// DefaultPath is the data resource location relative to the working
// directory.
const DefaultPath = "data/simpledata.json"

// maxBodySize caps how much of a remote response is read.
const maxBodySize = 32 << 20

// Source returns the raw bytes of the data resource.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)

	// String describes the resource for logs and errors.
	String() string
}

// NewSource returns an HTTPSource for http:// and https:// locations and a
// FileSource for anything else. An empty location means DefaultPath.
func NewSource(location string) Source {
	if location == "" {
		location = DefaultPath
	}
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return &HTTPSource{URL: location}
	}
	return &FileSource{Path: location}
}

// FileSource reads the data resource from the local filesystem.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(s.Path)
}

func (s *FileSource) String() string {
	return s.Path
}

// HTTPSource GETs the data resource. Any non-2xx status is an error.
type HTTPSource struct {
	URL string

	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, errors.New("response body too large")
	}
	return body, nil
}

func (s *HTTPSource) String() string {
	return s.URL
}

// StatusError is returned by HTTPSource for a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}
