// Package fingerprint implements the change-detection digest over a dog's
// content-bearing fields and the per-shelter diff classification built on it.
//
// The digest is not a security primitive; what matters is that the canonical
// serialization is deterministic across runs and processes so two records with
// identical content always collide and differing content (with overwhelming
// probability) does not.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/SnoutAI/snout-mvp/engine/domain"
)

// Content enumerates exactly the fields the fingerprint covers. Anything not
// listed here (bio, photos variants, timestamps, status) does not participate
// in change detection.
type Content struct {
	Name        string
	Sex         domain.Sex
	Description string
	Breeds      []domain.BreedEstimate
	Size        *domain.SizeEstimate
	Age         *domain.AgeEstimate
	Personality []string
	Photos      []string
	Urgent      bool
}

// FromDog projects a canonical record onto its fingerprinted content.
func FromDog(d domain.Dog) Content {
	return Content{
		Name:        d.Name,
		Sex:         d.Sex,
		Description: d.Description,
		Breeds:      d.Breeds,
		Size:        d.Size,
		Age:         d.Age,
		Personality: d.Personality,
		Photos:      d.Photos,
		Urgent:      d.Urgent,
	}
}

// FromInput projects a post-extraction CreateDogInput onto its content.
func FromInput(in domain.CreateDogInput) Content {
	return Content{
		Name:        in.Name,
		Sex:         in.Sex,
		Description: in.Description,
		Breeds:      in.Breeds,
		Size:        in.Size,
		Age:         in.Age,
		Personality: in.Personality,
		Photos:      in.Photos,
		Urgent:      in.Urgent,
	}
}

// Compute returns the hex digest of the canonical serialization of c.
func Compute(c Content) string {
	sum := sha256.Sum256([]byte(canonical(c)))
	return hex.EncodeToString(sum[:])
}

// canonical renders the content as a fixed-order, unit-separated text form.
// Field order and float formatting are part of the wire-stable contract:
// changing either forces a one-time reindex of every record.
func canonical(c Content) string {
	var b strings.Builder

	writeField(&b, "name", c.Name)
	writeField(&b, "sex", string(c.Sex))
	writeField(&b, "desc", c.Description)

	breeds := make([]string, len(c.Breeds))
	for i, br := range c.Breeds {
		breeds[i] = br.Breed + ":" + formatFloat(br.Confidence)
	}
	writeField(&b, "breeds", strings.Join(breeds, ","))

	if c.Size != nil {
		writeField(&b, "size", string(c.Size.Category)+":"+formatFloat(c.Size.Confidence))
	} else {
		writeField(&b, "size", "")
	}

	if c.Age != nil {
		writeField(&b, "age", strconv.Itoa(c.Age.Months)+":"+
			strconv.Itoa(c.Age.MinMonths)+":"+
			strconv.Itoa(c.Age.MaxMonths)+":"+
			formatFloat(c.Age.Confidence))
	} else {
		writeField(&b, "age", "")
	}

	writeField(&b, "personality", strings.Join(c.Personality, ","))
	writeField(&b, "photos", strings.Join(c.Photos, ","))
	writeField(&b, "urgent", strconv.FormatBool(c.Urgent))

	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteByte('\x1f')
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
