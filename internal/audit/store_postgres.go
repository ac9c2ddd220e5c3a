package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "inkregister/pkg/domain"
	txcontext "inkregister/pkg/platform/tx"
)

// PostgresStore persists the trail in the audit_logs table. Details are
// stored as JSONB. The table has no UPDATE or DELETE path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFor(ctx, s.db)
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	var actorID *uuid.UUID
	if !entry.ActorID.IsNil() {
		raw := uuid.UUID(entry.ActorID)
		actorID = &raw
	}

	query := `
		INSERT INTO audit_logs (id, user_id, action, table_name, record_id, details, ip_address, user_agent, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		actorID,
		string(entry.Action),
		entry.TableName,
		entry.RecordID,
		details,
		nullable(entry.IP),
		nullable(entry.UserAgent),
		nullable(entry.RequestID),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByActor(ctx context.Context, actorID id.MasterID) ([]Entry, error) {
	query := `
		SELECT id, user_id, action, table_name, record_id, details, ip_address, user_agent, request_id, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(actorID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, user_id, action, table_name, record_id, details, ip_address, user_agent, request_id, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			actorID *uuid.UUID
			action  string
			details []byte
			ip      sql.NullString
			ua      sql.NullString
			reqID   sql.NullString
		)
		err := rows.Scan(
			&entry.ID,
			&actorID,
			&action,
			&entry.TableName,
			&entry.RecordID,
			&details,
			&ip,
			&ua,
			&reqID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = Action(action)
		if actorID != nil {
			entry.ActorID = id.MasterID(*actorID)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entry.IP = ip.String
		entry.UserAgent = ua.String
		entry.RequestID = reqID.String

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
