package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to 16-bit stereo.
const bytesPerFrame = 4

// MP3Prober measures clips stored under a local assets directory and caches the results.
type MP3Prober struct {
	root string

	mu    sync.Mutex
	cache map[string]time.Duration
}

// NewMP3Prober reads clips relative to root.
func NewMP3Prober(root string) *MP3Prober {
	return &MP3Prober{root: root, cache: make(map[string]time.Duration)}
}

// Duration decodes the clip headers and returns its length.
func (p *MP3Prober) Duration(ctx context.Context, clip string) (time.Duration, error) {
	p.mu.Lock()
	d, ok := p.cache[clip]
	p.mu.Unlock()
	if ok {
		return d, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := os.Open(p.path(clip))
	if err != nil {
		return 0, fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, fmt.Errorf("decode clip %s: %w", clip, err)
	}
	if dec.Length() <= 0 || dec.SampleRate() <= 0 {
		return 0, fmt.Errorf("clip %s has no measurable length", clip)
	}
	frames := dec.Length() / bytesPerFrame
	d = time.Duration(frames) * time.Second / time.Duration(dec.SampleRate())

	p.mu.Lock()
	p.cache[clip] = d
	p.mu.Unlock()
	return d, nil
}

func (p *MP3Prober) path(clip string) string {
	return filepath.Join(p.root, filepath.FromSlash(filepath.Clean("/"+clip)))
}

var _ Prober = (*MP3Prober)(nil)
