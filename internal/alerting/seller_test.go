package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sales-leaderboard/internal/storage"
)

type stubFetcher struct {
	profiles map[string]storage.Profile
	err      error
	calls    int
}

func (f *stubFetcher) GetProfile(_ context.Context, id string) (storage.Profile, error) {
	f.calls++
	if f.err != nil {
		return storage.Profile{}, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return storage.Profile{}, storage.ErrNotFound
	}
	return p, nil
}

func newResolver(dir *Directory, fetcher ProfileFetcher) *SellerResolver {
	return NewSellerResolver(SellerOptions{
		LookupTimeout:            time.Second,
		SyntheticPrefix:          "test-",
		PlaceholderName:          "Vendedor",
		SyntheticPlaceholderName: "Vendedor Teste",
	}, dir, fetcher, zerolog.Nop())
}

func TestResolveUsesEventSnapshot(t *testing.T) {
	fetcher := &stubFetcher{}
	r := newResolver(nil, fetcher)

	seller, err := r.Resolve(context.Background(), Alert{SellerID: "s1", SellerDisplayName: "Ana Souza", SellerAvatarURL: "a.png"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if seller.DisplayName != "Ana Souza" || seller.AvatarURL != "a.png" || seller.Source != "event" {
		t.Fatalf("unexpected seller %+v", seller)
	}
	if fetcher.calls != 0 {
		t.Fatalf("complete snapshot should not fetch")
	}
}

func TestResolveFillsFromDirectory(t *testing.T) {
	dir := NewDirectory()
	dir.Replace([]storage.Profile{{ID: "s1", FullName: "Bruno Carlos Lima", AvatarURL: "b.png"}})
	fetcher := &stubFetcher{}
	r := newResolver(dir, fetcher)

	seller, err := r.Resolve(context.Background(), Alert{SellerID: "s1", SellerDisplayName: "Bruno"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if seller.DisplayName != "Bruno" || seller.AvatarURL != "b.png" || seller.Source != "directory" {
		t.Fatalf("unexpected seller %+v", seller)
	}

	seller, _ = r.Resolve(context.Background(), Alert{SellerID: "s1"})
	if seller.DisplayName != "Bruno Lima" {
		t.Fatalf("directory name should be formatted, got %q", seller.DisplayName)
	}
	if fetcher.calls != 0 {
		t.Fatalf("directory hit should not fetch")
	}
}

func TestResolveFetchesAndCaches(t *testing.T) {
	dir := NewDirectory()
	fetcher := &stubFetcher{profiles: map[string]storage.Profile{"s2": {ID: "s2", FullName: "Carla Dias", AvatarURL: "c.png"}}}
	r := newResolver(dir, fetcher)

	for i := 0; i < 2; i++ {
		seller, err := r.Resolve(context.Background(), Alert{SellerID: "s2"})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if seller.DisplayName != "Carla Dias" || seller.AvatarURL != "c.png" {
			t.Fatalf("unexpected seller %+v", seller)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetcher calls = %d, want 1", fetcher.calls)
	}
	if dir.Len() != 1 {
		t.Fatalf("fetched profile should be cached")
	}
}

func TestResolveSyntheticSkipsFetch(t *testing.T) {
	fetcher := &stubFetcher{}
	r := newResolver(nil, fetcher)

	seller, err := r.Resolve(context.Background(), Alert{SellerID: "test-42"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if seller.DisplayName != "Vendedor Teste" {
		t.Fatalf("synthetic placeholder = %q", seller.DisplayName)
	}
	if fetcher.calls != 0 {
		t.Fatalf("synthetic seller must not be fetched")
	}
}

func TestResolveLookupFailureUsesPlaceholder(t *testing.T) {
	for name, fetcher := range map[string]ProfileFetcher{
		"missing": &stubFetcher{},
		"error":   &stubFetcher{err: errors.New("connection refused")},
		"none":    nil,
	} {
		t.Run(name, func(t *testing.T) {
			r := newResolver(nil, fetcher)
			seller, err := r.Resolve(context.Background(), Alert{SellerID: "s9"})
			if err != nil {
				t.Fatalf("lookup failure should degrade, got %v", err)
			}
			if seller.DisplayName != "Vendedor" || seller.Source != "placeholder" {
				t.Fatalf("unexpected seller %+v", seller)
			}
		})
	}
}

func TestResolveCancelledContextIsUnrecoverable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newResolver(nil, &stubFetcher{err: context.Canceled})

	if _, err := r.Resolve(ctx, Alert{SellerID: "s9"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestResolveWithoutSellerID(t *testing.T) {
	r := newResolver(nil, &stubFetcher{})
	seller, err := r.Resolve(context.Background(), Alert{})
	if err != nil || seller.DisplayName != "Vendedor" {
		t.Fatalf("seller=%+v err=%v", seller, err)
	}
}
