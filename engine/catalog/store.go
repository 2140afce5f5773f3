// Package catalog is the persistence layer for shelters, dogs, sync logs
// and the API cost ledger, backed by Neo4j.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/SnoutAI/snout-mvp/engine/domain"
)

// Store provides catalog operations over one graph database.
type Store struct {
	opener SessionOpener
	log    *slog.Logger
}

// New creates a Store over a Neo4j driver.
func New(driver neo4j.DriverWithContext, log *slog.Logger) *Store {
	return NewWithOpener(&driverOpener{driver: driver}, log)
}

// NewWithOpener creates a Store over an explicit session opener.
func NewWithOpener(opener SessionOpener, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{opener: opener, log: log}
}

// GetShelter returns one shelter by ID.
func (s *Store) GetShelter(ctx context.Context, id string) (domain.Shelter, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, `MATCH (s:Shelter {id: $id}) RETURN s`, map[string]any{"id": id})
	if err != nil {
		return domain.Shelter{}, &domain.StorageError{Operation: "read", Entity: "shelter", Err: err}
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return domain.Shelter{}, &domain.StorageError{Operation: "read", Entity: "shelter", Err: err}
		}
		return domain.Shelter{}, &domain.NotFoundError{Entity: "shelter", ID: id}
	}
	node, _, err := neo4j.GetRecordValue[neo4j.Node](res.Record(), "s")
	if err != nil {
		return domain.Shelter{}, &domain.StorageError{Operation: "read", Entity: "shelter", Err: err}
	}
	return shelterFromProps(node.Props), nil
}

// ListShelters returns all shelters ordered by ID.
func (s *Store) ListShelters(ctx context.Context) ([]domain.Shelter, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	res, err := sess.Run(ctx, `MATCH (s:Shelter) RETURN s ORDER BY s.id`, nil)
	if err != nil {
		return nil, &domain.StorageError{Operation: "read", Entity: "shelter", Err: err}
	}
	var out []domain.Shelter
	for res.Next(ctx) {
		node, _, err := neo4j.GetRecordValue[neo4j.Node](res.Record(), "s")
		if err != nil {
			return nil, &domain.StorageError{Operation: "read", Entity: "shelter", Err: err}
		}
		out = append(out, shelterFromProps(node.Props))
	}
	if err := res.Err(); err != nil {
		return nil, &domain.StorageError{Operation: "read", Entity: "shelter", Err: err}
	}
	return out, nil
}

// SaveShelter creates or updates a shelter node.
func (s *Store) SaveShelter(ctx context.Context, sh domain.Shelter) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, `MERGE (s:Shelter {id: $id}) SET s += $props`, map[string]any{
		"id":    sh.ID,
		"props": shelterToProps(sh),
	})
	if err != nil {
		return &domain.StorageError{Operation: "write", Entity: "shelter", Err: err}
	}
	return nil
}

// UpdateShelterStatus records the outcome of a sync attempt. lastSync is
// only advanced when non-nil, so a failed run keeps the previous timestamp.
func (s *Store) UpdateShelterStatus(ctx context.Context, id string, status domain.ShelterStatus, lastSync *time.Time) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	params := map[string]any{"id": id, "status": string(status)}
	cypher := `MATCH (s:Shelter {id: $id}) SET s.status = $status`
	if lastSync != nil {
		cypher += `, s.last_sync = $lastSync`
		params["lastSync"] = lastSync.UTC().Unix()
	}
	if _, err := sess.Run(ctx, cypher, params); err != nil {
		return &domain.StorageError{Operation: "write", Entity: "shelter", Err: err}
	}
	return nil
}

func shelterToProps(sh domain.Shelter) map[string]any {
	props := map[string]any{
		"id":     sh.ID,
		"slug":   sh.Slug,
		"name":   sh.Name,
		"url":    sh.URL,
		"city":   sh.City,
		"region": sh.Region,
		"lat":    sh.Lat,
		"lon":    sh.Lon,
		"email":  sh.Email,
		"phone":  sh.Phone,
		"active": sh.Active,
		"status": string(sh.Status),
	}
	if sh.LastSync != nil {
		props["last_sync"] = sh.LastSync.UTC().Unix()
	}
	return props
}

func shelterFromProps(props map[string]any) domain.Shelter {
	sh := domain.Shelter{
		ID:     strProp(props, "id"),
		Slug:   strProp(props, "slug"),
		Name:   strProp(props, "name"),
		URL:    strProp(props, "url"),
		City:   strProp(props, "city"),
		Region: strProp(props, "region"),
		Lat:    floatProp(props, "lat"),
		Lon:    floatProp(props, "lon"),
		Email:  strProp(props, "email"),
		Phone:  strProp(props, "phone"),
		Active: boolProp(props, "active"),
		Status: domain.ShelterStatus(strProp(props, "status")),
	}
	if ts, ok := props["last_sync"].(int64); ok {
		t := time.Unix(ts, 0).UTC()
		sh.LastSync = &t
	}
	return sh
}

func strProp(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

func floatProp(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func intProp(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func boolProp(props map[string]any, key string) bool {
	b, _ := props[key].(bool)
	return b
}
