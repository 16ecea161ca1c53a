// Package assets loads and caches the images a rendered page references
// (background letterheads, logos). Loads run asynchronously; the capture
// pipeline waits for in-flight loads to settle before rasterizing, and a
// failed load renders blank instead of stalling an export forever.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

type entry struct {
	done chan struct{}
	img  image.Image
	err  error
}

// Loader fetches images by path or URL, decoding each source once.
type Loader struct {
	baseDir string
	client  *http.Client
	log     *logrus.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// NewLoader resolves relative paths against baseDir. A nil logger falls back
// to the logrus standard logger.
func NewLoader(baseDir string, log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{
		baseDir: baseDir,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
		entries: make(map[string]*entry),
	}
}

// Prefetch starts loading src in the background. Repeated calls for the same
// source share one load.
func (l *Loader) Prefetch(src string) {
	if src == "" {
		return
	}
	l.mu.Lock()
	if _, ok := l.entries[src]; ok {
		l.mu.Unlock()
		return
	}
	e := &entry{done: make(chan struct{})}
	l.entries[src] = e
	l.mu.Unlock()

	go func() {
		e.img, e.err = l.fetch(src)
		if e.err != nil {
			l.log.WithField("src", src).WithError(e.err).Warn("asset load failed; will render blank")
		}
		close(e.done)
	}()
}

// Wait blocks until every named source has settled (loaded or failed) or ctx
// is done. Load failures are non-fatal and not reported here; only
// cancellation aborts the wait.
func (l *Loader) Wait(ctx context.Context, srcs []string) error {
	for _, src := range srcs {
		l.Prefetch(src)
		l.mu.Lock()
		e := l.entries[src]
		l.mu.Unlock()
		select {
		case <-e.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Image returns the decoded image for src if it loaded successfully.
func (l *Loader) Image(src string) (image.Image, bool) {
	l.mu.Lock()
	e, ok := l.entries[src]
	l.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-e.done:
	default:
		return nil, false
	}
	if e.err != nil || e.img == nil {
		return nil, false
	}
	return e.img, true
}

// Fitted returns the image resized to exactly w×h pixels for full-bleed
// placement, or nil when the source is unavailable.
func (l *Loader) Fitted(src string, w, h int) image.Image {
	img, ok := l.Image(src)
	if !ok || w <= 0 || h <= 0 {
		return nil
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

func (l *Loader) fetch(src string) (image.Image, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		resp, err := l.client.Get(src)
		if err != nil {
			return nil, fmt.Errorf("assets: fetching %s: %w", src, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("assets: fetching %s: status %s", src, resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("assets: reading %s: %w", src, err)
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("assets: decoding %s: %w", src, err)
		}
		return img, nil
	}

	path := src
	if !filepath.IsAbs(path) && l.baseDir != "" {
		path = filepath.Join(l.baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("assets: opening %s: %w", src, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("assets: decoding %s: %w", src, err)
	}
	return img, nil
}
