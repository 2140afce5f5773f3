package adapters

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/SnoutAI/snout-mvp/engine/domain"
)

// NaPaluchu scrapes Schronisko Na Paluchu in Warsaw. Detail pages live under
// /zwierzeta/do-adopcji/<slug>-<number>/ and carry the dog's card markup.
type NaPaluchu struct {
	*client
	site Site
}

var napaluchuDetailRegex = regexp.MustCompile(`/zwierzeta/do-adopcji/[a-z0-9-]+/?$`)

// NewNaPaluchu wires the adapter with the injected HTTP capability and
// scraping limits.
func NewNaPaluchu(doer Doer, opts Options) *NaPaluchu {
	return &NaPaluchu{
		client: newClient(doer, opts),
		site: Site{
			ShelterID:   "napaluchu",
			Slug:        "na-paluchu",
			Name:        "Schronisko Na Paluchu",
			BaseURL:     "https://napaluchu.waw.pl",
			ListingPath: "/zwierzeta/do-adopcji/",
			City:        "Warszawa",
			Region:      "mazowieckie",
		},
	}
}

func (a *NaPaluchu) ID() string   { return a.site.ShelterID }
func (a *NaPaluchu) Name() string { return a.site.Name }
func (a *NaPaluchu) Site() Site   { return a.site }

func (a *NaPaluchu) Fetch(ctx context.Context, site Site) (string, error) {
	return a.fetchListing(ctx, site)
}

func (a *NaPaluchu) Parse(ctx context.Context, listingHTML string, site Site) ([]domain.RawDogData, error) {
	doc, err := parseDocument(site.ShelterID, listingHTML)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(site.BaseURL)
	if err != nil {
		return nil, &domain.ParseError{ShelterID: site.ShelterID, Detail: "invalid base url", Err: err}
	}

	urls := extractListingURLs(doc, base, napaluchuDetailRegex, a.opts.MaxListings)
	if len(urls) == 0 {
		return nil, &domain.ParseError{ShelterID: site.ShelterID, Detail: "listing page has no adoption links"}
	}

	return collectDetails(ctx, urls, a.opts.DetailWorkers, func(ctx context.Context, u string) (domain.RawDogData, error) {
		return a.parseDetail(ctx, u, site)
	}), nil
}

func (a *NaPaluchu) parseDetail(ctx context.Context, detailURL string, site Site) (domain.RawDogData, error) {
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

	name := firstText(doc, "h1.animal-name", "h1")
	description := firstText(doc, "div.animal-description", "div.opis", "article p")
	pageText := doc.Text()

	return domain.RawDogData{
		FingerprintSeed: FingerprintSeed(site.ShelterID, externalID),
		ExternalID:      externalID,
		Name:            name,
		RawDescription:  description,
		Breed:           firstText(doc, "span.animal-breed", "td.rasa"),
		AgeText:         firstText(doc, "span.animal-age", "td.wiek"),
		Sex:             inferSex(pageText),
		Photos:          extractPhotos(doc, base, "/galeria/"),
		Urgent:          isUrgent(pageText),
		SourceURL:       detailURL,
	}, nil
}

func (a *NaPaluchu) Transform(raw domain.RawDogData, site Site) (domain.CreateDogInput, error) {
	return transformRaw(raw, site)
}

// transformRaw is the shared Transform implementation: a pure projection of
// RawDogData onto the canonical input shape.
func transformRaw(raw domain.RawDogData, site Site) (domain.CreateDogInput, error) {
	if strings.TrimSpace(raw.ExternalID) == "" {
		return domain.CreateDogInput{}, &domain.ParseError{ShelterID: site.ShelterID, Detail: "detail page yielded no external id"}
	}
	if strings.TrimSpace(raw.Name) == "" {
		return domain.CreateDogInput{}, &domain.ParseError{ShelterID: site.ShelterID, Detail: "detail page yielded no name: " + raw.SourceURL}
	}

	sex := raw.Sex
	if sex == "" {
		sex = domain.SexUnknown
	}

	return domain.CreateDogInput{
		ShelterID:   site.ShelterID,
		ExternalID:  raw.ExternalID,
		Name:        strings.TrimSpace(raw.Name),
		Sex:         sex,
		Description: strings.TrimSpace(raw.RawDescription),
		Personality: raw.Personality,
		Photos:      raw.Photos,
		Urgent:      raw.Urgent,
		SourceURL:   raw.SourceURL,
	}, nil
}
