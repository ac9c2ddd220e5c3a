package adverse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "inkregister/pkg/domain"
)

// PostgresStore persists adverse events. The table is append-only; there is
// no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO adverse_events (
			id, procedure_id, client_id, master_id, severity,
			description, action_taken, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		event.ID,
		uuid.UUID(event.ProcedureID),
		uuid.UUID(event.ClientID),
		uuid.UUID(event.MasterID),
		string(event.Severity),
		event.Description,
		event.ActionTaken,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert adverse event: %w", err)
	}
	return nil
}

const eventColumns = `
	id, procedure_id, client_id, master_id, severity,
	description, action_taken, created_at
`

func (s *PostgresStore) ListByMaster(ctx context.Context, masterID id.MasterID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM adverse_events WHERE master_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(masterID),
	)
	if err != nil {
		return nil, fmt.Errorf("query adverse events: %w", err)
	}
	return scanEvents(rows)
}

func (s *PostgresStore) ListByProcedure(ctx context.Context, procedureID id.ProcedureID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM adverse_events WHERE procedure_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(procedureID),
	)
	if err != nil {
		return nil, fmt.Errorf("query adverse events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			event    Event
			procID   uuid.UUID
			clientID uuid.UUID
			masterID uuid.UUID
			severity string
		)
		err := rows.Scan(
			&event.ID, &procID, &clientID, &masterID, &severity,
			&event.Description, &event.ActionTaken, &event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan adverse event: %w", err)
		}
		event.ProcedureID = id.ProcedureID(procID)
		event.ClientID = id.ClientID(clientID)
		event.MasterID = id.MasterID(masterID)
		event.Severity = Severity(severity)
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adverse events: %w", err)
	}
	return out, nil
}
