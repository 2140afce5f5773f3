package fingerprint

// Candidate is one freshly scraped and extracted dog, reduced to the pair the
// diff needs.
type Candidate struct {
	ExternalID  string
	Fingerprint string
}

// Diff is the classification of one shelter sync against stored state.
// Removals lists stored external ids absent from the fresh candidate set.
type Diff struct {
	Creates   []Candidate
	Updates   []Candidate
	Unchanged []Candidate
	Removals  []string
}

// Classify compares fresh candidates with the stored externalId→fingerprint
// map for a shelter. Unchanged fingerprints are no-ops: this is the primary
// cost control of the whole pipeline, since unchanged records skip bio
// generation, photo processing and embedding entirely.
func Classify(stored map[string]string, fresh []Candidate) Diff {
	var d Diff
	seen := make(map[string]bool, len(fresh))

	for _, c := range fresh {
		seen[c.ExternalID] = true
		prev, known := stored[c.ExternalID]
		switch {
		case !known:
			d.Creates = append(d.Creates, c)
		case prev != c.Fingerprint:
			d.Updates = append(d.Updates, c)
		default:
			d.Unchanged = append(d.Unchanged, c)
		}
	}

	for id := range stored {
		if !seen[id] {
			d.Removals = append(d.Removals, id)
		}
	}
	return d
}
