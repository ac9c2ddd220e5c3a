package procedure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "inkregister/pkg/domain"
	"inkregister/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists procedures and waivers. The two inserts of
// CreateWithWaiver run in one transaction so the store never holds a
// procedure without its waiver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateWithWaiver(ctx context.Context, proc Procedure, waiver Waiver) error {
	healthData, err := json.Marshal(proc.HealthData)
	if err != nil {
		return fmt.Errorf("marshal health data: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO procedures (
			id, master_id, client_id, type, pigment, shade, batch_number,
			needle_size, client_name, client_personal_code_hash,
			client_birth_date, health_data, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		uuid.UUID(proc.ID),
		uuid.UUID(proc.MasterID),
		uuid.UUID(proc.ClientID),
		proc.Type,
		proc.Pigment,
		proc.Shade,
		proc.BatchNumber,
		proc.NeedleSize,
		proc.ClientName,
		proc.ClientPersonalCodeHash,
		proc.ClientBirthDate,
		healthData,
		proc.Status,
		proc.CreatedAt,
	)
	if err != nil {
		return translatePQ(err, "insert procedure")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO waivers (procedure_id, pdf_storage_path, created_at)
		VALUES ($1, $2, $3)
	`,
		uuid.UUID(waiver.ProcedureID),
		waiver.StoragePath,
		waiver.CreatedAt,
	)
	if err != nil {
		return translatePQ(err, "insert waiver")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit procedure tx: %w", err)
	}
	return nil
}

const procedureColumns = `
	id, master_id, client_id, type, pigment, shade, batch_number,
	needle_size, client_name, client_personal_code_hash,
	client_birth_date, health_data, status, created_at
`

func (s *PostgresStore) FindByID(ctx context.Context, procedureID id.ProcedureID) (Procedure, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+procedureColumns+` FROM procedures WHERE id = $1`,
		uuid.UUID(procedureID),
	)
	proc, err := scanProcedure(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Procedure{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Procedure{}, fmt.Errorf("query procedure: %w", err)
	}
	return proc, nil
}

func (s *PostgresStore) ListByMaster(ctx context.Context, masterID id.MasterID) ([]Procedure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+procedureColumns+` FROM procedures WHERE master_id = $1 ORDER BY created_at DESC`,
		uuid.UUID(masterID),
	)
	if err != nil {
		return nil, fmt.Errorf("query procedures: %w", err)
	}
	defer rows.Close()

	var out []Procedure
	for rows.Next() {
		proc, err := scanProcedure(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan procedure: %w", err)
		}
		out = append(out, proc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate procedures: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByClientSince(ctx context.Context, clientID id.ClientID, cutoff time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM procedures WHERE client_id = $1 AND created_at >= $2`,
		uuid.UUID(clientID), cutoff,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count procedures since cutoff: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountByClient(ctx context.Context, clientID id.ClientID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM procedures WHERE client_id = $1`,
		uuid.UUID(clientID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count procedures: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) WaiverByProcedure(ctx context.Context, procedureID id.ProcedureID) (Waiver, error) {
	var (
		waiver Waiver
		rawID  uuid.UUID
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT procedure_id, pdf_storage_path, created_at FROM waivers WHERE procedure_id = $1`,
		uuid.UUID(procedureID),
	).Scan(&rawID, &waiver.StoragePath, &waiver.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Waiver{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Waiver{}, fmt.Errorf("query waiver: %w", err)
	}
	waiver.ProcedureID = id.ProcedureID(rawID)
	return waiver, nil
}

func scanProcedure(scan func(dest ...any) error) (Procedure, error) {
	var (
		proc       Procedure
		procID     uuid.UUID
		masterID   uuid.UUID
		clientID   uuid.UUID
		shade      sql.NullString
		needleSize sql.NullString
		healthData []byte
	)
	err := scan(
		&procID, &masterID, &clientID, &proc.Type, &proc.Pigment, &shade,
		&proc.BatchNumber, &needleSize, &proc.ClientName,
		&proc.ClientPersonalCodeHash, &proc.ClientBirthDate, &healthData,
		&proc.Status, &proc.CreatedAt,
	)
	if err != nil {
		return Procedure{}, err
	}
	proc.ID = id.ProcedureID(procID)
	proc.MasterID = id.MasterID(masterID)
	proc.ClientID = id.ClientID(clientID)
	proc.Shade = shade.String
	proc.NeedleSize = needleSize.String
	if len(healthData) > 0 {
		if err := json.Unmarshal(healthData, &proc.HealthData); err != nil {
			return Procedure{}, fmt.Errorf("unmarshal health data: %w", err)
		}
	}
	return proc, nil
}

func translatePQ(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
