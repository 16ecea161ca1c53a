package assets

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestPNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestLoadAndFit(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "bg.png", 10, 20)
	l := NewLoader(dir, nil)

	if err := l.Wait(context.Background(), []string{"bg.png"}); err != nil {
		t.Fatalf("wait: %v", err)
	}
	img, ok := l.Image("bg.png")
	if !ok {
		t.Fatal("image not loaded")
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 20 {
		t.Fatalf("bounds: %v", img.Bounds())
	}

	fitted := l.Fitted("bg.png", 100, 50)
	if fitted == nil {
		t.Fatal("fitted returned nil for a loaded image")
	}
	if fitted.Bounds().Dx() != 100 || fitted.Bounds().Dy() != 50 {
		t.Fatalf("fitted bounds: %v", fitted.Bounds())
	}
}

func TestWaitSwallowsLoadFailures(t *testing.T) {
	l := NewLoader(t.TempDir(), nil)
	// A missing file settles as failed; Wait still returns so an export is
	// never stalled by a broken asset reference.
	if err := l.Wait(context.Background(), []string{"nope.png"}); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if _, ok := l.Image("nope.png"); ok {
		t.Fatal("failed load must not yield an image")
	}
	if l.Fitted("nope.png", 10, 10) != nil {
		t.Fatal("failed load must fit to nil")
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	l := NewLoader(t.TempDir(), nil)
	// Swap in an entry that never settles to simulate a hung fetch.
	e := &entry{done: make(chan struct{})}
	l.mu.Lock()
	l.entries["slow.png"] = e
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, []string{"slow.png"}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestPrefetchSharesOneLoad(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "logo.png", 4, 4)
	l := NewLoader(dir, nil)
	l.Prefetch("logo.png")
	l.Prefetch("logo.png")

	l.mu.Lock()
	n := len(l.entries)
	l.mu.Unlock()
	if n != 1 {
		t.Fatalf("entries: %d", n)
	}
}
