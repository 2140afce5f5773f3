package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/SnoutAI/snout-mvp/engine/domain"
)

// StartSyncLog opens a new sync-log entry for one shelter run and returns
// its ID. The log is append-only: entries are finalized, never rewritten.
func (s *Store) StartSyncLog(ctx context.Context, shelterID string) (string, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	id := uuid.NewString()
	cypher := `CREATE (l:SyncLog {id: $id, shelter_id: $shelterId, started_at: $startedAt})`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"id":        id,
		"shelterId": shelterID,
		"startedAt": time.Now().UTC().Unix(),
	})
	if err != nil {
		return "", &domain.StorageError{Operation: "write", Entity: "sync_log", Err: err}
	}
	return id, nil
}

// FinishSyncLog closes a sync-log entry with its outcome counts and any
// per-item error messages collected during the run.
func (s *Store) FinishSyncLog(ctx context.Context, id string, added, updated, removed int, errs []string) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (l:SyncLog {id: $id})
	           SET l.finished_at = $finishedAt,
	               l.added = $added,
	               l.updated = $updated,
	               l.removed = $removed,
	               l.errors = $errors`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"id":         id,
		"finishedAt": time.Now().UTC().Unix(),
		"added":      added,
		"updated":    updated,
		"removed":    removed,
		"errors":     errs,
	})
	if err != nil {
		return &domain.StorageError{Operation: "write", Entity: "sync_log", Err: err}
	}
	return nil
}

// RecentSyncLogs returns the latest runs for one shelter, newest first.
func (s *Store) RecentSyncLogs(ctx context.Context, shelterID string, limit int) ([]domain.SyncLog, error) {
	if limit <= 0 {
		limit = 10
	}
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (l:SyncLog {shelter_id: $shelterId})
	           RETURN l ORDER BY l.started_at DESC LIMIT $limit`
	res, err := sess.Run(ctx, cypher, map[string]any{"shelterId": shelterID, "limit": limit})
	if err != nil {
		return nil, &domain.StorageError{Operation: "read", Entity: "sync_log", Err: err}
	}

	var out []domain.SyncLog
	for res.Next(ctx) {
		node, _, err := neo4j.GetRecordValue[neo4j.Node](res.Record(), "l")
		if err != nil {
			return nil, &domain.StorageError{Operation: "read", Entity: "sync_log", Err: err}
		}
		out = append(out, syncLogFromProps(node.Props))
	}
	if err := res.Err(); err != nil {
		return nil, &domain.StorageError{Operation: "read", Entity: "sync_log", Err: err}
	}
	return out, nil
}

func syncLogFromProps(props map[string]any) domain.SyncLog {
	l := domain.SyncLog{
		ID:        strProp(props, "id"),
		ShelterID: strProp(props, "shelter_id"),
		StartedAt: timeProp(props, "started_at"),
		Added:     intProp(props, "added"),
		Updated:   intProp(props, "updated"),
		Removed:   intProp(props, "removed"),
	}
	if ts, ok := props["finished_at"].(int64); ok && ts > 0 {
		t := time.Unix(ts, 0).UTC()
		l.FinishedAt = &t
	}
	switch v := props["errors"].(type) {
	case []string:
		l.Errors = v
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				l.Errors = append(l.Errors, s)
			}
		}
	case string:
		if v != "" {
			l.Errors = strings.Split(v, "\n")
		}
	}
	return l
}
