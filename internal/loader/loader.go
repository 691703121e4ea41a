package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/csvcharts/internal/dataset"
)

// Source opens the raw bytes behind a dataset path.
type Source interface {
	CanOpen(path string) bool
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

type fileSource struct{}

func (fileSource) CanOpen(string) bool { return true }

func (fileSource) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(p)
}

type httpSource struct {
	client *http.Client
}

func (httpSource) CanOpen(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func (s httpSource) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &statusError{code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(b))}
	}
	return resp.Body, nil
}

type statusError struct {
	code   int
	status string
	body   string
}

func (e *statusError) Error() string {
	if e.body != "" {
		return fmt.Sprintf("%s: %s", e.status, e.body)
	}
	return e.status
}

// Loader fetches and parses delimited text datasets.
type Loader struct {
	sources   []Source
	delimiter rune
	log       logrus.FieldLogger
}

// Option customizes a Loader.
type Option func(*Loader)

// WithDelimiter forces a field delimiter instead of sniffing it from the name.
func WithDelimiter(d rune) Option { return func(l *Loader) { l.delimiter = d } }

// WithLogger sets the logger used for load events.
func WithLogger(log logrus.FieldLogger) Option { return func(l *Loader) { l.log = log } }

// WithSource registers an extra source ahead of the built-in ones.
func WithSource(s Source) Option {
	return func(l *Loader) { l.sources = append([]Source{s}, l.sources...) }
}

// New returns a loader for local files and http(s) URLs.
func New(httpTimeout time.Duration, opts ...Option) *Loader {
	if httpTimeout <= 0 {
		httpTimeout = 30 * time.Second
	}
	l := &Loader{
		sources: []Source{
			httpSource{client: &http.Client{Timeout: httpTimeout}},
			fileSource{},
		},
		log: logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load fetches src and parses it into a Dataset. Fetch failures and non-success
// statuses are reported as *LoadError. Nothing is retried.
func (l *Loader) Load(ctx context.Context, src string) (*dataset.Dataset, error) {
	start := time.Now()
	var s Source
	for _, cand := range l.sources {
		if cand.CanOpen(src) {
			s = cand
			break
		}
	}
	if s == nil {
		return nil, &LoadError{Source: src, Err: errors.New("no source can open path")}
	}
	rc, err := s.Open(ctx, src)
	if err != nil {
		le := &LoadError{Source: src, Err: err}
		var se *statusError
		if errors.As(err, &se) {
			le.StatusCode = se.code
		}
		return nil, le
	}
	defer rc.Close()

	body := &bodyReader{r: rc}
	ds, err := dataset.Parse(body, baseName(src), dataset.ParseOptions{Delimiter: l.delimiterFor(src)})
	if err != nil {
		switch {
		case body.err != nil:
			return nil, &LoadError{Source: src, Err: body.err}
		case ctx.Err() != nil:
			return nil, &LoadError{Source: src, Err: ctx.Err()}
		}
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	ds.Source = src
	l.log.WithFields(logrus.Fields{
		"source":  src,
		"rows":    ds.Len(),
		"columns": ds.NumColumns(),
		"elapsed": time.Since(start).String(),
	}).Debug("dataset loaded")
	return ds, nil
}

// bodyReader remembers the first transport error so a truncated or timed out
// body is reported as a fetch failure rather than a CSV syntax error.
type bodyReader struct {
	r   io.Reader
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && b.err == nil {
		b.err = err
	}
	return n, err
}

func (l *Loader) delimiterFor(src string) rune {
	if l.delimiter != 0 {
		return l.delimiter
	}
	if strings.HasSuffix(strings.ToLower(stripQuery(src)), ".tsv") {
		return '\t'
	}
	return ','
}

func baseName(src string) string {
	s := stripQuery(src)
	if strings.Contains(s, "://") {
		return path.Base(s)
	}
	return filepath.Base(s)
}

func stripQuery(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}
