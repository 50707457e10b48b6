package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/Carmen-Shannon/oxy-sprites/engine/renderer"
)

var (
	// ErrInvalidPath is returned when an asset path is empty, missing, or not a regular file.
	ErrInvalidPath = errors.New("invalid asset path")
	// ErrUnsupportedFormat is returned when an asset path has an extension no decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported asset format")
	// ErrLoaderClosed is returned by Load after Close.
	ErrLoaderClosed = errors.New("loader closed")
	// ErrUnknownAsset is returned for an AssetID this loader never issued.
	ErrUnknownAsset = errors.New("unknown asset")
)

// AssetID identifies a texture asset within one Loader. The zero value is never issued.
type AssetID uint64

// LoadState is the lifecycle state of a texture asset.
type LoadState int

const (
	// LoadStatePending means the asset is still decoding or has not been uploaded yet.
	LoadStatePending LoadState = iota
	// LoadStateReady means the texture is uploaded and can be bound.
	LoadStateReady
	// LoadStateFailed means decoding or upload failed. The asset stays failed.
	LoadStateFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadStatePending:
		return "pending"
	case LoadStateReady:
		return "ready"
	case LoadStateFailed:
		return "failed"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// supportedExtensions lists the file extensions the default decoder handles.
var supportedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".bmp":  {},
	".webp": {},
}

type asset struct {
	path    string
	state   LoadState
	decoded bool
	staging common.TextureStagingData
	texture *renderer.Texture
	err     error
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.Mutex

	renderer renderer.Renderer
	decoder  Decoder

	workers     int
	queueSize   int
	idleTimeout time.Duration
	pool        worker.DynamicWorkerPool
	pending     sync.WaitGroup

	assets map[AssetID]*asset
	byPath map[string]AssetID
	nextID AssetID

	closed    bool
	closeOnce sync.Once
}

// Loader defines the asynchronous texture asset table.
// Decoding runs on a worker pool; uploading to the GPU happens on the caller's goroutine
// the first time Texture is asked for a decoded asset, so the render thread never blocks on IO.
type Loader interface {
	// Load validates the path and starts decoding it in the background.
	// Loading a path that was already loaded returns the existing AssetID.
	//
	// Parameters:
	//   - path: the image file to load
	//
	// Returns:
	//   - AssetID: the handle of the asset
	//   - error: a wrapped ErrInvalidPath, ErrUnsupportedFormat or ErrLoaderClosed
	Load(path string) (AssetID, error)

	// Texture returns the GPU texture for an asset. A decoded asset is uploaded on the first call.
	//
	// Parameters:
	//   - id: the asset handle
	//
	// Returns:
	//   - *renderer.Texture: the uploaded texture, or nil
	//   - bool: true only if the asset is ready
	Texture(id AssetID) (*renderer.Texture, bool)

	// State returns the lifecycle state of an asset. Unknown ids report LoadStateFailed.
	State(id AssetID) LoadState

	// Err returns why an asset failed, or nil.
	Err(id AssetID) error

	// Path returns the path an asset was loaded from.
	Path(id AssetID) string

	// Wait blocks until every submitted decode has finished or ctx is done.
	Wait(ctx context.Context) error

	// Close waits for in-flight decodes and stops the worker pool. Safe to call more than once.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader uploading through r, with the provided options applied.
//
// Parameters:
//   - r: the renderer that receives decoded textures
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader with a running worker pool
func NewLoader(r renderer.Renderer, options ...LoaderBuilderOption) Loader {
	l := &loader{
		renderer:    r,
		decoder:     DecodeImage,
		workers:     2,
		queueSize:   64,
		idleTimeout: time.Second,
		assets:      make(map[AssetID]*asset),
		byPath:      make(map[string]AssetID),
	}

	for _, option := range options {
		option(l)
	}

	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, l.idleTimeout)
	return l
}

func (l *loader) Load(path string) (AssetID, error) {
	if err := validatePath(path); err != nil {
		return 0, err
	}
	key := filepath.Clean(path)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return 0, ErrLoaderClosed
	}
	if id, ok := l.byPath[key]; ok {
		l.mu.Unlock()
		return id, nil
	}
	l.nextID++
	id := l.nextID
	l.assets[id] = &asset{path: key, state: LoadStatePending}
	l.byPath[key] = id
	l.pending.Add(1)
	l.mu.Unlock()

	// SubmitTask blocks while the queue is full, so it runs outside the lock.
	l.pool.SubmitTask(worker.Task{
		ID:      int(id),
		Payload: key,
		Do: func() (any, error) {
			defer l.pending.Done()
			return nil, l.decode(id, key)
		},
	})

	return id, nil
}

func (l *loader) decode(id AssetID, path string) error {
	staging, err := l.decoder(path)
	if err == nil && !staging.Valid() {
		err = fmt.Errorf("decoder returned %dx%d image with %d bytes", staging.Width, staging.Height, len(staging.Pixels))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.assets[id]
	if err != nil {
		a.state = LoadStateFailed
		a.err = fmt.Errorf("failed to decode %s: %w", path, err)
		log.Printf("[Loader] %v", a.err)
		return a.err
	}
	a.staging = staging
	a.decoded = true
	return nil
}

func (l *loader) Texture(id AssetID) (*renderer.Texture, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.assets[id]
	if !ok {
		return nil, false
	}

	switch a.state {
	case LoadStateReady:
		return a.texture, true
	case LoadStateFailed:
		return nil, false
	}
	if !a.decoded {
		return nil, false
	}

	tex, err := l.renderer.CreateTexture(filepath.Base(a.path), a.staging)
	if err != nil {
		a.state = LoadStateFailed
		a.err = fmt.Errorf("failed to upload %s: %w", a.path, err)
		log.Printf("[Loader] %v", a.err)
		return nil, false
	}
	a.texture = tex
	a.state = LoadStateReady
	a.staging = common.TextureStagingData{}
	log.Printf("[Loader] %s ready (%dx%d)", a.path, tex.Width(), tex.Height())

	return tex, true
}

func (l *loader) State(id AssetID) LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.assets[id]
	if !ok {
		return LoadStateFailed
	}
	return a.state
}

func (l *loader) Err(id AssetID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.assets[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownAsset, id)
	}
	return a.err
}

func (l *loader) Path(id AssetID) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a, ok := l.assets[id]; ok {
		return a.path
	}
	return ""
}

func (l *loader) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *loader) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()

		l.pending.Wait()
		l.pool.Stop()
	})
}

// validatePath checks that path names an existing regular file with a supported extension.
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrInvalidPath, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := supportedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}
