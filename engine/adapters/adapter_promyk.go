package adapters

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/pkg/fn"
)

// Promyk scrapes Schronisko Promyk in Gdańsk. The site addresses detail pages
// through a query parameter (/adopcje/pies.php?pet_id=NNN), so external IDs
// come from the query string rather than the path.
type Promyk struct {
	*client
	site Site
}

var promykDetailRegex = regexp.MustCompile(`/adopcje/pies\.php\?pet_id=\d+$`)

func NewPromyk(doer Doer, opts Options) *Promyk {
	return &Promyk{
		client: newClient(doer, opts),
		site: Site{
			ShelterID:   "promyk",
			Slug:        "promyk",
			Name:        "Schronisko Promyk",
			BaseURL:     "https://schroniskopromyk.pl",
			ListingPath: "/adopcje/psy.php",
			City:        "Gdańsk",
			Region:      "pomorskie",
		},
	}
}

func (a *Promyk) ID() string   { return a.site.ShelterID }
func (a *Promyk) Name() string { return a.site.Name }
func (a *Promyk) Site() Site   { return a.site }

func (a *Promyk) Fetch(ctx context.Context, site Site) (string, error) {
	return a.fetchListing(ctx, site)
}

func (a *Promyk) Parse(ctx context.Context, listingHTML string, site Site) ([]domain.RawDogData, error) {
	doc, err := parseDocument(site.ShelterID, listingHTML)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(site.BaseURL)
	if err != nil {
		return nil, &domain.ParseError{ShelterID: site.ShelterID, Detail: "invalid base url", Err: err}
	}

	urls := extractListingURLs(doc, base, promykDetailRegex, a.opts.MaxListings)
	if len(urls) == 0 {
		return nil, &domain.ParseError{ShelterID: site.ShelterID, Detail: "listing page has no adoption links"}
	}

	return collectDetails(ctx, urls, a.opts.DetailWorkers, func(ctx context.Context, u string) (domain.RawDogData, error) {
		return a.parseDetail(ctx, u, site)
	}), nil
}

func (a *Promyk) parseDetail(ctx context.Context, detailURL string, site Site) (domain.RawDogData, error) {
	html, err := a.get(ctx, detailURL)
	if err != nil {
		return domain.RawDogData{}, err
	}
	doc, err := parseDocument(site.ShelterID, html)
	if err != nil {
		return domain.RawDogData{}, err
	}

	base, _ := url.Parse(site.BaseURL)
	externalID := externalIDFromQuery(detailURL, "pet_id")
	pageText := doc.Text()

	// Promyk tags each dog with short personality labels rendered as badges.
	var personality []string
	doc.Find("ul.cechy li, span.badge-cecha").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			personality = append(personality, t)
		}
	})

	return domain.RawDogData{
		FingerprintSeed: FingerprintSeed(site.ShelterID, externalID),
		ExternalID:      externalID,
		Name:            firstText(doc, "h2.pet-name", "h1", "h2"),
		RawDescription:  firstText(doc, "div.pet-story", "div.opis-psa", "article p"),
		Breed:           firstText(doc, "td.rasa", "span.pet-breed"),
		AgeText:         firstText(doc, "td.wiek", "span.pet-age"),
		SizeText:        firstText(doc, "td.wielkosc", "span.pet-size"),
		Sex:             inferSex(pageText),
		Personality:     fn.Unique(personality),
		Photos:          extractPhotos(doc, base, "/foto/"),
		Urgent:          isUrgent(pageText),
		SourceURL:       detailURL,
	}, nil
}

func (a *Promyk) Transform(raw domain.RawDogData, site Site) (domain.CreateDogInput, error) {
	return transformRaw(raw, site)
}
