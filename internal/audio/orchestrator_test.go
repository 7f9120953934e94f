package audio

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sales-leaderboard/internal/clock"
)

type recordingPlayer struct {
	mu       sync.Mutex
	voices   []string
	bells    []string
	stops    int
	voiceErr error
}

func (p *recordingPlayer) PlayVoice(_ context.Context, clip string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voices = append(p.voices, clip)
	return p.voiceErr
}

func (p *recordingPlayer) PlayBell(_ context.Context, clip string, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bells = append(p.bells, clip)
	return nil
}

func (p *recordingPlayer) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *recordingPlayer) counts() (int, int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.voices), len(p.bells), p.stops
}

type fixedProber struct {
	d     time.Duration
	err   error
	block bool
}

func (p fixedProber) Duration(ctx context.Context, _ string) (time.Duration, error) {
	if p.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return p.d, p.err
}

func newTestOrchestrator(player Player, prober Prober) (*Orchestrator, *clock.Manual) {
	clk := clock.NewManual(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	o := NewOrchestrator(Options{
		BellPath:          "bell.mp3",
		MetadataTimeout:   20 * time.Millisecond,
		BellFallbackDelay: 3 * time.Second,
		BellLead:          time.Second,
	}, player, prober, clk, zerolog.Nop())
	return o, clk
}

func assertDelays(t *testing.T, clk *clock.Manual, want ...time.Duration) {
	t.Helper()
	got := clk.Delays()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pending delays = %v, want %v", got, want)
	}
}

func TestBellDelay(t *testing.T) {
	cases := []struct {
		voice time.Duration
		known bool
		want  time.Duration
	}{
		{4 * time.Second, true, 3 * time.Second},
		{1500 * time.Millisecond, true, 500 * time.Millisecond},
		{time.Second, true, 3 * time.Second},
		{800 * time.Millisecond, true, 3 * time.Second},
		{10 * time.Second, false, 3 * time.Second},
	}
	for _, tc := range cases {
		if got := BellDelay(tc.voice, tc.known, time.Second, 3*time.Second); got != tc.want {
			t.Fatalf("BellDelay(%v, %v) = %v, want %v", tc.voice, tc.known, got, tc.want)
		}
	}
}

func TestPlayRingsBellOneSecondBeforeVoiceEnds(t *testing.T) {
	player := &recordingPlayer{}
	o, clk := newTestOrchestrator(player, fixedProber{d: 4 * time.Second})

	o.Play(Plan{VoicePath: "v1k.mp3", PlayBell: true})
	o.Wait()

	assertDelays(t, clk, 3*time.Second)
	clk.Advance(2 * time.Second)
	if _, bells, _ := player.counts(); bells != 0 {
		t.Fatalf("bell rang early")
	}
	clk.Advance(time.Second)
	voices, bells, _ := player.counts()
	if voices != 1 || bells != 1 {
		t.Fatalf("voices=%d bells=%d, want 1/1", voices, bells)
	}
}

func TestPlayFallsBackWhenDurationUnknown(t *testing.T) {
	for name, prober := range map[string]Prober{
		"error":   fixedProber{err: errors.New("bad header")},
		"timeout": fixedProber{block: true},
		"zero":    fixedProber{},
		"none":    nil,
	} {
		t.Run(name, func(t *testing.T) {
			player := &recordingPlayer{}
			o, clk := newTestOrchestrator(player, prober)
			o.Play(Plan{VoicePath: "v2k.mp3", PlayBell: true})
			o.Wait()
			assertDelays(t, clk, 3*time.Second)
		})
	}
}

func TestVoiceFailureStillRingsBell(t *testing.T) {
	player := &recordingPlayer{voiceErr: ErrPlayback}
	o, clk := newTestOrchestrator(player, fixedProber{d: 6 * time.Second})

	o.Play(Plan{VoicePath: "v5k.mp3", PlayBell: true})
	o.Wait()
	assertDelays(t, clk, 3*time.Second)

	clk.Advance(3 * time.Second)
	if _, bells, _ := player.counts(); bells != 1 {
		t.Fatalf("expected bell-only fallback, got %d bells", bells)
	}
}

func TestBellOnlyPlan(t *testing.T) {
	player := &recordingPlayer{}
	o, clk := newTestOrchestrator(player, fixedProber{d: 4 * time.Second})

	o.Play(Plan{PlayBell: true})
	o.Wait()
	assertDelays(t, clk, 3*time.Second)
	clk.Advance(3 * time.Second)

	voices, bells, _ := player.counts()
	if voices != 0 || bells != 1 {
		t.Fatalf("voices=%d bells=%d, want 0/1", voices, bells)
	}
}

func TestNoBellWhenPlanSaysSo(t *testing.T) {
	player := &recordingPlayer{}
	o, clk := newTestOrchestrator(player, fixedProber{d: 4 * time.Second})

	o.Play(Plan{VoicePath: "v.mp3"})
	o.Wait()
	assertDelays(t, clk)

	o.Play(Plan{})
	o.Wait()
	assertDelays(t, clk)
	if voices, bells, _ := player.counts(); voices != 1 || bells != 0 {
		t.Fatalf("voices=%d bells=%d, want 1/0", voices, bells)
	}
}

func TestStopCancelsPendingBell(t *testing.T) {
	player := &recordingPlayer{}
	o, clk := newTestOrchestrator(player, fixedProber{d: 4 * time.Second})

	o.Play(Plan{VoicePath: "v1k.mp3", PlayBell: true})
	o.Wait()
	o.Stop()

	assertDelays(t, clk)
	clk.Advance(10 * time.Second)
	_, bells, stops := player.counts()
	if bells != 0 {
		t.Fatalf("bell rang after Stop")
	}
	if stops != 1 {
		t.Fatalf("StopAll calls = %d, want 1", stops)
	}
}

func TestPlayReplacesPreviousSession(t *testing.T) {
	player := &recordingPlayer{}
	o, clk := newTestOrchestrator(player, fixedProber{d: 4 * time.Second})

	o.Play(Plan{VoicePath: "a.mp3", PlayBell: true})
	o.Wait()
	o.Play(Plan{VoicePath: "b.mp3", PlayBell: true})
	o.Wait()

	assertDelays(t, clk, 3*time.Second)
	clk.Advance(3 * time.Second)
	if _, bells, _ := player.counts(); bells != 1 {
		t.Fatalf("bells = %d, want 1", bells)
	}
}
