package loader

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(1, 0, color.RGBA{B: 255, A: 255})

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

func newTestLoader(t *testing.T, options ...LoaderBuilderOption) (Loader, renderer.HeadlessRenderer) {
	t.Helper()
	r, err := renderer.NewHeadlessRenderer()
	if err != nil {
		t.Fatalf("NewHeadlessRenderer: %v", err)
	}
	l := NewLoader(r, options...)
	t.Cleanup(l.Close)
	return l, r
}

func waitAll(t *testing.T, l Loader) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestLoadRejectsBadPaths(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(textFile, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"empty", "", ErrInvalidPath},
		{"blank", "   ", ErrInvalidPath},
		{"missing", filepath.Join(dir, "missing.png"), ErrInvalidPath},
		{"directory", dir, ErrInvalidPath},
		{"unsupported extension", textFile, ErrUnsupportedFormat},
	}

	l, _ := newTestLoader(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := l.Load(tt.path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Load(%q) error = %v, want %v", tt.path, err, tt.want)
			}
			if id != 0 {
				t.Errorf("Load(%q) id = %d, want 0", tt.path, id)
			}
		})
	}
}

func TestLoadDeduplicatesByPath(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png")

	l, _ := newTestLoader(t)
	first, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := l.Load(filepath.Join(dir, ".", "a.png"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Errorf("ids differ for the same file: %d and %d", first, second)
	}

	other, err := l.Load(writePNG(t, dir, "b.png"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if other == first {
		t.Errorf("different files share id %d", other)
	}
}

func TestTextureUploadsOnceAfterDecode(t *testing.T) {
	path := writePNG(t, t.TempDir(), "sprite.png")
	l, r := newTestLoader(t)

	id, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitAll(t, l)

	if got := l.State(id); got != LoadStatePending {
		t.Fatalf("state before first Texture call = %v, want pending", got)
	}

	tex, ok := l.Texture(id)
	if !ok || tex == nil {
		t.Fatalf("Texture(%d) = %v, %v; want ready texture", id, tex, ok)
	}
	if tex.Width() != 2 || tex.Height() != 1 {
		t.Errorf("texture size = %dx%d, want 2x1", tex.Width(), tex.Height())
	}
	if got := l.State(id); got != LoadStateReady {
		t.Errorf("state = %v, want ready", got)
	}

	data, ok := r.TextureData(tex)
	if !ok {
		t.Fatalf("texture %d not uploaded", tex.ID())
	}
	want := []byte{255, 0, 0, 255, 0, 0, 255, 255}
	if string(data.Pixels) != string(want) {
		t.Errorf("pixels = %v, want %v", data.Pixels, want)
	}

	again, ok := l.Texture(id)
	if !ok || again != tex {
		t.Errorf("second Texture call returned a different texture")
	}
	if uploads := r.Stats().TextureUploads; uploads != 1 {
		t.Errorf("texture uploads = %d, want 1", uploads)
	}
}

func TestDecodeFailureIsPermanent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(path, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, r := newTestLoader(t)
	id, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load should accept a well-formed path, got %v", err)
	}
	waitAll(t, l)

	if got := l.State(id); got != LoadStateFailed {
		t.Fatalf("state = %v, want failed", got)
	}
	if l.Err(id) == nil {
		t.Errorf("Err = nil for failed asset")
	}
	for range 3 {
		if tex, ok := l.Texture(id); ok || tex != nil {
			t.Fatalf("Texture returned %v, %v for failed asset", tex, ok)
		}
	}
	if uploads := r.Stats().TextureUploads; uploads != 0 {
		t.Errorf("texture uploads = %d, want 0", uploads)
	}
}

func TestTextureStaysPendingWhileDecoding(t *testing.T) {
	path := writePNG(t, t.TempDir(), "slow.png")
	release := make(chan struct{})
	decoder := func(p string) (common.TextureStagingData, error) {
		<-release
		return DecodeImage(p)
	}

	l, _ := newTestLoader(t, WithDecoder(decoder), WithWorkers(1))
	id, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, ok := l.Texture(id); ok {
		t.Errorf("Texture ready before decode finished")
	}
	if got := l.State(id); got != LoadStatePending {
		t.Errorf("state = %v, want pending", got)
	}

	close(release)
	waitAll(t, l)
	if _, ok := l.Texture(id); !ok {
		t.Errorf("Texture not ready after decode finished: %v", l.Err(id))
	}
}

func TestDecoderResultIsValidated(t *testing.T) {
	path := writePNG(t, t.TempDir(), "short.png")
	decoder := func(string) (common.TextureStagingData, error) {
		return common.TextureStagingData{Pixels: []byte{1, 2, 3}, Width: 1, Height: 1}, nil
	}

	l, _ := newTestLoader(t, WithDecoder(decoder))
	id, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitAll(t, l)

	if got := l.State(id); got != LoadStateFailed {
		t.Errorf("state = %v, want failed", got)
	}
}

func TestUnknownAsset(t *testing.T) {
	l, _ := newTestLoader(t)
	if got := l.State(42); got != LoadStateFailed {
		t.Errorf("State = %v, want failed", got)
	}
	if err := l.Err(42); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("Err = %v, want ErrUnknownAsset", err)
	}
	if p := l.Path(42); p != "" {
		t.Errorf("Path = %q, want empty", p)
	}
}

func TestLoadAfterClose(t *testing.T) {
	path := writePNG(t, t.TempDir(), "late.png")
	l, _ := newTestLoader(t)
	l.Close()
	l.Close()

	if _, err := l.Load(path); !errors.Is(err, ErrLoaderClosed) {
		t.Errorf("Load after Close error = %v, want ErrLoaderClosed", err)
	}
}

func TestStagingFromImageOffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(3, 4, 5, 6))
	img.Set(3, 4, color.RGBA{G: 255, A: 255})

	staging, err := StagingFromImage(img)
	if err != nil {
		t.Fatalf("StagingFromImage: %v", err)
	}
	if staging.Width != 2 || staging.Height != 2 || !staging.Valid() {
		t.Fatalf("staging = %dx%d with %d bytes", staging.Width, staging.Height, len(staging.Pixels))
	}
	if staging.Pixels[1] != 255 {
		t.Errorf("first texel = %v, want green", staging.Pixels[:4])
	}
}
