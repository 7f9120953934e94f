package alerting

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sales-leaderboard/internal/metrics"
	"sales-leaderboard/internal/sales"
	"sales-leaderboard/internal/storage"
)

// ErrLookup reports that a seller profile could not be fetched.
var ErrLookup = errors.New("seller lookup failed")

// Seller is the presentable identity of the seller behind an alert.
type Seller struct {
	DisplayName string
	AvatarURL   string
	Source      string
}

// Directory caches seller profiles keyed by id. The refresh loop replaces it wholesale.
type Directory struct {
	mu       sync.RWMutex
	profiles map[string]storage.Profile
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{profiles: make(map[string]storage.Profile)}
}

// Replace swaps the cached profiles.
func (d *Directory) Replace(profiles []storage.Profile) {
	next := make(map[string]storage.Profile, len(profiles))
	for _, p := range profiles {
		next[p.ID] = p
	}
	d.mu.Lock()
	d.profiles = next
	d.mu.Unlock()
}

// Put caches a single profile.
func (d *Directory) Put(p storage.Profile) {
	d.mu.Lock()
	d.profiles[p.ID] = p
	d.mu.Unlock()
}

// Lookup returns the cached profile for id.
func (d *Directory) Lookup(id string) (storage.Profile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[id]
	return p, ok
}

// Len reports how many profiles are cached.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.profiles)
}

// ProfileFetcher loads a profile that is missing from the directory.
type ProfileFetcher interface {
	GetProfile(ctx context.Context, id string) (storage.Profile, error)
}

// SellerOptions tune fallback behaviour.
type SellerOptions struct {
	LookupTimeout            time.Duration
	SyntheticPrefix          string
	PlaceholderName          string
	SyntheticPlaceholderName string
}

// SellerResolver fills seller identity from the event snapshot, the directory, the profile store
// and finally placeholders.
type SellerResolver struct {
	opts      SellerOptions
	directory *Directory
	fetcher   ProfileFetcher
	logger    zerolog.Logger
}

// NewSellerResolver wires the lookup chain. fetcher may be nil.
func NewSellerResolver(opts SellerOptions, directory *Directory, fetcher ProfileFetcher, logger zerolog.Logger) *SellerResolver {
	if opts.PlaceholderName == "" {
		opts.PlaceholderName = "Vendedor"
	}
	if opts.SyntheticPlaceholderName == "" {
		opts.SyntheticPlaceholderName = opts.PlaceholderName
	}
	if directory == nil {
		directory = NewDirectory()
	}
	return &SellerResolver{
		opts:      opts,
		directory: directory,
		fetcher:   fetcher,
		logger:    logger.With().Str("component", "seller_resolver").Logger(),
	}
}

// Synthetic reports whether id belongs to a simulated seller.
func (r *SellerResolver) Synthetic(id string) bool {
	return r.opts.SyntheticPrefix != "" && strings.HasPrefix(id, r.opts.SyntheticPrefix)
}

// Resolve never fails on lookup problems; it only returns an error when ctx is done.
func (r *SellerResolver) Resolve(ctx context.Context, alert Alert) (Seller, error) {
	seller := Seller{DisplayName: alert.SellerDisplayName, AvatarURL: alert.SellerAvatarURL, Source: "event"}
	if seller.DisplayName != "" && seller.AvatarURL != "" {
		return seller, nil
	}

	synthetic := r.Synthetic(alert.SellerID)
	switch {
	case alert.SellerID == "":
	case synthetic:
		if seller.DisplayName == "" {
			seller.DisplayName = r.opts.SyntheticPlaceholderName
			seller.Source = "placeholder"
		}
	default:
		if p, ok := r.directory.Lookup(alert.SellerID); ok {
			fill(&seller, p, "directory")
			break
		}
		p, err := r.fetch(ctx, alert.SellerID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Seller{}, ctxErr
			}
			metrics.LookupFailures.Inc()
			r.logger.Warn().Err(err).Str("seller_id", alert.SellerID).Msg("seller lookup failed, using placeholder")
			break
		}
		r.directory.Put(p)
		fill(&seller, p, "store")
	}

	if seller.DisplayName == "" {
		seller.DisplayName = r.opts.PlaceholderName
		seller.Source = "placeholder"
	}
	return seller, nil
}

func (r *SellerResolver) fetch(ctx context.Context, id string) (storage.Profile, error) {
	if r.fetcher == nil {
		return storage.Profile{}, ErrLookup
	}
	if r.opts.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.LookupTimeout)
		defer cancel()
	}
	p, err := r.fetcher.GetProfile(ctx, id)
	if err != nil {
		return storage.Profile{}, errors.Join(ErrLookup, err)
	}
	return p, nil
}

func fill(seller *Seller, p storage.Profile, source string) {
	filled := false
	if seller.DisplayName == "" {
		if name := sales.FormatName(p.FullName); name != "" {
			seller.DisplayName = name
			filled = true
		}
	}
	if seller.AvatarURL == "" && p.AvatarURL != "" {
		seller.AvatarURL = p.AvatarURL
		filled = true
	}
	if filled {
		seller.Source = source
	}
}
