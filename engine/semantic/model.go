package semantic

import (
	"fmt"

	"github.com/google/uuid"
)

// VectorRecord is one embedded search document headed for the index.
// Payload keys are facet fields; absent facets are left out of the map
// entirely rather than stored as nulls.
type VectorRecord struct {
	DogID     string
	Embedding []float32
	Payload   map[string]any
}

// PointID derives the deterministic Qdrant point id for a dog. Re-upserting
// the same dog always lands on the same point, which keeps redelivered
// reindex jobs idempotent.
func PointID(dogID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("dog:%s", dogID))).String()
}
