package adapters

import (
	"context"
	"net/url"
	"regexp"

	"github.com/SnoutAI/snout-mvp/engine/domain"
)

// Psiakowo scrapes Fundacja Psiakowo in Kraków. Detail pages live under
// /adopcje/psy/<slug>/ and the slug doubles as the external ID.
type Psiakowo struct {
	*client
	site Site
}

var psiakowoDetailRegex = regexp.MustCompile(`/adopcje/psy/[a-z0-9-]+/?$`)

func NewPsiakowo(doer Doer, opts Options) *Psiakowo {
	return &Psiakowo{
		client: newClient(doer, opts),
		site: Site{
			ShelterID:   "psiakowo",
			Slug:        "psiakowo",
			Name:        "Fundacja Psiakowo",
			BaseURL:     "https://psiakowo.org",
			ListingPath: "/adopcje/psy/",
			City:        "Kraków",
			Region:      "małopolskie",
		},
	}
}

func (a *Psiakowo) ID() string   { return a.site.ShelterID }
func (a *Psiakowo) Name() string { return a.site.Name }
func (a *Psiakowo) Site() Site   { return a.site }

func (a *Psiakowo) Fetch(ctx context.Context, site Site) (string, error) {
	return a.fetchListing(ctx, site)
}

func (a *Psiakowo) Parse(ctx context.Context, listingHTML string, site Site) ([]domain.RawDogData, error) {
	doc, err := parseDocument(site.ShelterID, listingHTML)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(site.BaseURL)
	if err != nil {
		return nil, &domain.ParseError{ShelterID: site.ShelterID, Detail: "invalid base url", Err: err}
	}

	urls := extractListingURLs(doc, base, psiakowoDetailRegex, a.opts.MaxListings)
	if len(urls) == 0 {
		return nil, &domain.ParseError{ShelterID: site.ShelterID, Detail: "listing page has no adoption links"}
	}

	return collectDetails(ctx, urls, a.opts.DetailWorkers, func(ctx context.Context, u string) (domain.RawDogData, error) {
		return a.parseDetail(ctx, u, site)
	}), nil
}

func (a *Psiakowo) parseDetail(ctx context.Context, detailURL string, site Site) (domain.RawDogData, error) {
	html, err := a.get(ctx, detailURL)
	if err != nil {
		return domain.RawDogData{}, err
	}
	doc, err := parseDocument(site.ShelterID, html)
	if err != nil {
		return domain.RawDogData{}, err
	}

	base, _ := url.Parse(site.BaseURL)
	externalID := externalIDFromPath(detailURL)
	pageText := doc.Text()

	return domain.RawDogData{
		FingerprintSeed: FingerprintSeed(site.ShelterID, externalID),
		ExternalID:      externalID,
		Name:            firstText(doc, "h1.entry-title", "h1"),
		RawDescription:  firstText(doc, "div.entry-content", "div.dog-bio"),
		Breed:           firstText(doc, "li.dog-breed span.value", "span.rasa"),
		AgeText:         firstText(doc, "li.dog-age span.value", "span.wiek"),
		SizeText:        firstText(doc, "li.dog-size span.value", "span.rozmiar"),
		Sex:             inferSex(pageText),
		Photos:          extractPhotos(doc, base, "/wp-content/uploads/"),
		Urgent:          isUrgent(pageText),
		SourceURL:       detailURL,
	}, nil
}

func (a *Psiakowo) Transform(raw domain.RawDogData, site Site) (domain.CreateDogInput, error) {
	return transformRaw(raw, site)
}
