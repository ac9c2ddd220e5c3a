package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "inkregister/pkg/domain"
	"inkregister/pkg/platform/sentinel"
	txcontext "inkregister/pkg/platform/tx"
)

// uniqueViolation is the postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// PostgresStore persists clients. The clients table carries a unique index
// on personal_code_hash; FindOrCreate leans on it so two concurrent intakes
// for an unseen identifier converge on a single row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Querier {
	return txcontext.QuerierFor(ctx, s.db)
}

func (s *PostgresStore) FindOrCreate(ctx context.Context, candidate Client) (Client, bool, error) {
	// The no-op DO UPDATE makes RETURNING yield the surviving row on
	// conflict; xmax = 0 distinguishes a fresh insert from an existing row.
	query := `
		INSERT INTO clients (id, full_name, personal_code_hash, birth_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (personal_code_hash)
		DO UPDATE SET personal_code_hash = EXCLUDED.personal_code_hash
		RETURNING id, full_name, personal_code_hash, birth_date, status, created_at, (xmax = 0)
	`
	var (
		out      Client
		rawID    uuid.UUID
		status   string
		inserted bool
	)
	err := s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(candidate.ID),
		candidate.FullName,
		candidate.PersonalCodeHash,
		candidate.BirthDate,
		string(candidate.Status),
		candidate.CreatedAt,
	).Scan(&rawID, &out.FullName, &out.PersonalCodeHash, &out.BirthDate, &status, &out.CreatedAt, &inserted)
	if err != nil {
		return Client{}, false, translatePQ(err, "upsert client")
	}
	out.ID = id.ClientID(rawID)
	out.Status = Status(status)
	return out, inserted, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, clientID id.ClientID) (Client, error) {
	query := `
		SELECT id, full_name, personal_code_hash, birth_date, status, created_at
		FROM clients
		WHERE id = $1
	`
	var (
		out    Client
		rawID  uuid.UUID
		status string
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(clientID)).Scan(
		&rawID, &out.FullName, &out.PersonalCodeHash, &out.BirthDate, &status, &out.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Client{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Client{}, fmt.Errorf("query client: %w", err)
	}
	out.ID = id.ClientID(rawID)
	out.Status = Status(status)
	return out, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, clientID id.ClientID, status Status) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE clients SET status = $2 WHERE id = $1`,
		uuid.UUID(clientID), string(status),
	)
	if err != nil {
		return fmt.Errorf("update client status: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) Anonymize(ctx context.Context, clientID id.ClientID) error {
	query := `
		UPDATE clients
		SET full_name = $2,
		    personal_code_hash = $3,
		    birth_date = $4,
		    status = $5
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(clientID),
		AnonymizedName,
		AnonymizedHash(clientID),
		AnonymizedBirthDate,
		string(StatusDeleted),
	)
	if err != nil {
		return translatePQ(err, "anonymize client")
	}
	return requireRow(result)
}

func (s *PostgresStore) Delete(ctx context.Context, clientID id.ClientID) error {
	result, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM clients WHERE id = $1`,
		uuid.UUID(clientID),
	)
	if err != nil {
		return translatePQ(err, "delete client")
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func translatePQ(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
