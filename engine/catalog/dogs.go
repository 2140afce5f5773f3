package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/SnoutAI/snout-mvp/engine/domain"
)

// UpsertDog creates or updates a dog node keyed by (shelter_id, external_id)
// and links it to its shelter. The caller is responsible for having the
// fingerprint recomputed from the content fields before calling.
func (s *Store) UpsertDog(ctx context.Context, dog domain.Dog) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	props, err := dogToProps(dog)
	if err != nil {
		return &domain.StorageError{Operation: "write", Entity: "dog", Err: err}
	}

	cypher := `MERGE (d:Dog {shelter_id: $shelterId, external_id: $externalId})
	           ON CREATE SET d.id = $id, d.created_at = $createdAt
	           SET d += $props
	           WITH d
	           MATCH (s:Shelter {id: $shelterId})
	           MERGE (s)-[:HOUSES]->(d)`
	_, err = sess.Run(ctx, cypher, map[string]any{
		"shelterId":  dog.ShelterID,
		"externalId": dog.ExternalID,
		"id":         dog.ID,
		"createdAt":  dog.CreatedAt.UTC().Unix(),
		"props":      props,
	})
	if err != nil {
		return &domain.StorageError{Operation: "write", Entity: "dog", Err: err}
	}
	return nil
}

// GetDog returns one dog by its record ID.
func (s *Store) GetDog(ctx context.Context, id string) (domain.Dog, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, `MATCH (d:Dog {id: $id}) RETURN d`, map[string]any{"id": id})
	if err != nil {
		return domain.Dog{}, &domain.StorageError{Operation: "read", Entity: "dog", Err: err}
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return domain.Dog{}, &domain.StorageError{Operation: "read", Entity: "dog", Err: err}
		}
		return domain.Dog{}, &domain.NotFoundError{Entity: "dog", ID: id}
	}
	node, _, err := neo4j.GetRecordValue[neo4j.Node](res.Record(), "d")
	if err != nil {
		return domain.Dog{}, &domain.StorageError{Operation: "read", Entity: "dog", Err: err}
	}
	return dogFromProps(node.Props)
}

// FingerprintMap loads externalId → fingerprint for every non-removed dog of
// one shelter. This is the stored side of the content diff.
func (s *Store) FingerprintMap(ctx context.Context, shelterID string) (map[string]string, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (d:Dog {shelter_id: $shelterId})
	           WHERE d.status <> 'removed'
	           RETURN d.external_id AS external_id, d.fingerprint AS fingerprint`
	res, err := sess.Run(ctx, cypher, map[string]any{"shelterId": shelterID})
	if err != nil {
		return nil, &domain.StorageError{Operation: "read", Entity: "dog", Err: err}
	}

	out := make(map[string]string)
	for res.Next(ctx) {
		rec := res.Record()
		extVal, _ := rec.Get("external_id")
		fpVal, _ := rec.Get("fingerprint")
		ext, _ := extVal.(string)
		fp, _ := fpVal.(string)
		if ext != "" {
			out[ext] = fp
		}
	}
	if err := res.Err(); err != nil {
		return nil, &domain.StorageError{Operation: "read", Entity: "dog", Err: err}
	}
	return out, nil
}

// DogIDsByExternal resolves record IDs for a set of external IDs of one
// shelter.
func (s *Store) DogIDsByExternal(ctx context.Context, shelterID string, externalIDs []string) (map[string]string, error) {
	if len(externalIDs) == 0 {
		return map[string]string{}, nil
	}
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (d:Dog {shelter_id: $shelterId})
	           WHERE d.external_id IN $externalIds
	           RETURN d.external_id AS external_id, d.id AS id`
	res, err := sess.Run(ctx, cypher, map[string]any{"shelterId": shelterID, "externalIds": externalIDs})
	if err != nil {
		return nil, &domain.StorageError{Operation: "read", Entity: "dog", Err: err}
	}
	out := make(map[string]string, len(externalIDs))
	for res.Next(ctx) {
		rec := res.Record()
		extVal, _ := rec.Get("external_id")
		idVal, _ := rec.Get("id")
		ext, _ := extVal.(string)
		id, _ := idVal.(string)
		if ext != "" && id != "" {
			out[ext] = id
		}
	}
	if err := res.Err(); err != nil {
		return nil, &domain.StorageError{Operation: "read", Entity: "dog", Err: err}
	}
	return out, nil
}

// MarkRemoved soft-deletes dogs that disappeared from their source listing.
// The records stay in the catalog; only the pipeline never hard-deletes.
func (s *Store) MarkRemoved(ctx context.Context, shelterID string, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (d:Dog {shelter_id: $shelterId})
	           WHERE d.external_id IN $externalIds
	           SET d.status = 'removed', d.updated_at = $now`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"shelterId":   shelterID,
		"externalIds": externalIDs,
		"now":         time.Now().UTC().Unix(),
	})
	if err != nil {
		return &domain.StorageError{Operation: "write", Entity: "dog", Err: err}
	}
	return nil
}

// ShelterStats aggregates dog counts for one shelter.
type ShelterStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// Stats returns aggregate dog counts for one shelter.
func (s *Store) Stats(ctx context.Context, shelterID string) (ShelterStats, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (d:Dog {shelter_id: $shelterId})
	           RETURN d.status AS status, count(d) AS n`
	res, err := sess.Run(ctx, cypher, map[string]any{"shelterId": shelterID})
	if err != nil {
		return ShelterStats{}, &domain.StorageError{Operation: "read", Entity: "dog", Err: err}
	}

	stats := ShelterStats{ByStatus: make(map[string]int)}
	for res.Next(ctx) {
		rec := res.Record()
		statusVal, _ := rec.Get("status")
		nVal, _ := rec.Get("n")
		status, _ := statusVal.(string)
		n, _ := nVal.(int64)
		stats.ByStatus[status] = int(n)
		stats.Total += int(n)
	}
	if err := res.Err(); err != nil {
		return ShelterStats{}, &domain.StorageError{Operation: "read", Entity: "dog", Err: err}
	}
	return stats, nil
}

// Nested structures are stored as JSON string properties; Neo4j properties
// are flat.
func dogToProps(dog domain.Dog) (map[string]any, error) {
	// id and created_at are set only on first creation (see UpsertDog), so an
	// update cannot rewrite record identity or its creation time.
	props := map[string]any{
		"shelter_id":   dog.ShelterID,
		"external_id":  dog.ExternalID,
		"name":         dog.Name,
		"sex":          string(dog.Sex),
		"description":  dog.Description,
		"city":         dog.City,
		"region":       dog.Region,
		"urgent":       dog.Urgent,
		"bio":          dog.Bio,
		"bio_tone":     string(dog.BioTone),
		"fingerprint":  dog.Fingerprint,
		"source_url":   dog.SourceURL,
		"status":       string(dog.Status),
		"updated_at":   dog.UpdatedAt.UTC().Unix(),
		"last_seen_at": dog.LastSeenAt.UTC().Unix(),
	}

	for key, value := range map[string]any{
		"breeds_json":           dog.Breeds,
		"size_json":             dog.Size,
		"age_json":              dog.Age,
		"weight_json":           dog.Weight,
		"personality_json":      dog.Personality,
		"health_json":           dog.Health,
		"photos_json":           dog.Photos,
		"generated_photos_json": dog.GeneratedPhotos,
	} {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		props[key] = string(raw)
	}
	return props, nil
}

func dogFromProps(props map[string]any) (domain.Dog, error) {
	dog := domain.Dog{
		ID:          strProp(props, "id"),
		ShelterID:   strProp(props, "shelter_id"),
		ExternalID:  strProp(props, "external_id"),
		Name:        strProp(props, "name"),
		Sex:         domain.Sex(strProp(props, "sex")),
		Description: strProp(props, "description"),
		City:        strProp(props, "city"),
		Region:      strProp(props, "region"),
		Urgent:      boolProp(props, "urgent"),
		Bio:         strProp(props, "bio"),
		BioTone:     domain.BioTone(strProp(props, "bio_tone")),
		Fingerprint: strProp(props, "fingerprint"),
		SourceURL:   strProp(props, "source_url"),
		Status:      domain.DogStatus(strProp(props, "status")),
		CreatedAt:   timeProp(props, "created_at"),
		UpdatedAt:   timeProp(props, "updated_at"),
		LastSeenAt:  timeProp(props, "last_seen_at"),
	}

	for key, target := range map[string]any{
		"breeds_json":           &dog.Breeds,
		"size_json":             &dog.Size,
		"age_json":              &dog.Age,
		"weight_json":           &dog.Weight,
		"personality_json":      &dog.Personality,
		"health_json":           &dog.Health,
		"photos_json":           &dog.Photos,
		"generated_photos_json": &dog.GeneratedPhotos,
	} {
		raw := strProp(props, key)
		if raw == "" || raw == "null" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), target); err != nil {
			return domain.Dog{}, err
		}
	}
	return dog, nil
}

func timeProp(props map[string]any, key string) time.Time {
	if ts, ok := props[key].(int64); ok && ts > 0 {
		return time.Unix(ts, 0).UTC()
	}
	return time.Time{}
}
