package domain

import "sort"

// KnownBreeds is the controlled breed vocabulary given to the extraction
// model. Keys are the canonical slugs stored on BreedEstimate; values are the
// Polish display names used in prompts and search text.
var KnownBreeds = map[string]string{
	"mixed":                   "mieszaniec",
	"german-shepherd":         "owczarek niemiecki",
	"labrador-retriever":      "labrador retriever",
	"golden-retriever":        "golden retriever",
	"husky":                   "husky syberyjski",
	"malamute":                "alaskan malamute",
	"beagle":                  "beagle",
	"dachshund":               "jamnik",
	"border-collie":           "border collie",
	"jack-russell-terrier":    "jack russell terrier",
	"yorkshire-terrier":       "york",
	"west-highland-terrier":   "west highland white terrier",
	"american-staffordshire":  "amstaff",
	"pit-bull":                "pitbull",
	"rottweiler":              "rottweiler",
	"doberman":                "doberman",
	"boxer":                   "bokser",
	"great-dane":              "dog niemiecki",
	"bernese-mountain-dog":    "berneński pies pasterski",
	"saint-bernard":           "bernardyn",
	"chihuahua":               "chihuahua",
	"pug":                     "mops",
	"french-bulldog":          "buldog francuski",
	"english-bulldog":         "buldog angielski",
	"shih-tzu":                "shih tzu",
	"maltese":                 "maltańczyk",
	"poodle":                  "pudel",
	"schnauzer":               "sznaucer",
	"spaniel":                 "spaniel",
	"setter":                  "seter",
	"pointer":                 "wyżeł",
	"greyhound":               "chart",
	"samoyed":                 "samojed",
	"akita":                   "akita",
	"shiba-inu":               "shiba inu",
	"corgi":                   "welsh corgi",
	"dalmatian":               "dalmatyńczyk",
	"caucasian-shepherd":      "owczarek kaukaski",
	"polish-lowland-sheepdog": "polski owczarek nizinny",
	"tatra-shepherd":          "owczarek podhalański",
}

// IsKnownBreed reports whether slug belongs to the controlled vocabulary.
func IsKnownBreed(slug string) bool {
	_, ok := KnownBreeds[slug]
	return ok
}

// BreedSlugs returns the vocabulary slugs in deterministic (sorted) order for
// prompt construction.
func BreedSlugs() []string {
	out := make([]string, 0, len(KnownBreeds))
	for k := range KnownBreeds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
