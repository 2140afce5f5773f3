// Package adapters isolates per-site scraping idiosyncrasies behind one
// uniform contract. Each shelter site gets a single adapter value in the
// registry; the processor drives every adapter identically through
// Fetch → Parse → Transform.
package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/SnoutAI/snout-mvp/engine/domain"
)

// Doer is the injected HTTP capability. Tests substitute a fake; production
// wires an *http.Client with an otelhttp transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Site describes one shelter source. Adapters receive it explicitly on every
// operation so the three operations stay referentially transparent given
// their inputs and the injected HTTP capability.
type Site struct {
	ShelterID   string
	Slug        string
	Name        string
	BaseURL     string
	ListingPath string
	City        string
	Region      string
}

// Adapter is the uniform per-site contract.
//
// Fetch retrieves the listing page. Parse extracts an ordered sequence of
// RawDogData, fetching detail pages with bounded concurrency; a failure on
// one detail page drops that item, only a listing-level failure is fatal.
// Transform converts one RawDogData into the canonical input shape and must
// be pure.
type Adapter interface {
	ID() string
	Name() string
	Site() Site
	Fetch(ctx context.Context, site Site) (string, error)
	Parse(ctx context.Context, listingHTML string, site Site) ([]domain.RawDogData, error)
	Transform(raw domain.RawDogData, site Site) (domain.CreateDogInput, error)
}

const (
	// defaultMaxListings caps detail-page fan-out per shelter to bound
	// worst-case load against third-party sites.
	defaultMaxListings = 60
	// defaultDetailWorkers sizes the detail-page fetch pool.
	defaultDetailWorkers = 5

	userAgent = "SnoutBot/1.0 (+https://snout.pl/bot)"
)

// Options tunes the scraping limits shared by every adapter. Zero values
// fall back to the defaults above.
type Options struct {
	// DetailWorkers is the size of the detail-page fetch pool.
	DetailWorkers int
	// MaxListings caps how many detail pages one listing may fan out to.
	MaxListings int
}

func (o Options) withDefaults() Options {
	if o.DetailWorkers <= 0 {
		o.DetailWorkers = defaultDetailWorkers
	}
	if o.MaxListings <= 0 {
		o.MaxListings = defaultMaxListings
	}
	return o
}

// client bundles the capabilities every adapter shares: the HTTP Doer, a
// polite per-adapter rate limit and the scraping limits.
type client struct {
	doer    Doer
	limiter *rate.Limiter
	opts    Options
}

func newClient(doer Doer, opts Options) *client {
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	return &client{
		doer:    doer,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
		opts:    opts.withDefaults(),
	}
}

// get fetches one page as a string, honouring the rate limit.
func (c *client) get(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.doer.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(body), nil
}

// fetchListing is the shared Fetch implementation: all three sites serve
// their listings as a single HTML page.
func (c *client) fetchListing(ctx context.Context, site Site) (string, error) {
	html, err := c.get(ctx, site.BaseURL+site.ListingPath)
	if err != nil {
		return "", &domain.ScrapeError{ShelterID: site.ShelterID, URL: site.BaseURL + site.ListingPath, Err: err}
	}
	return html, nil
}

// FingerprintSeed builds the adapter-local seed "{shelterId}:{externalId}".
func FingerprintSeed(shelterID, externalID string) string {
	return shelterID + ":" + externalID
}
