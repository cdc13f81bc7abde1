package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/contact-finder/internal/entity"
)

// pgxPool is the subset of *pgxpool.Pool used by the repository.
type pgxPool interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

var _ pgxPool = (*pgxpool.Pool)(nil)

// PostgresSchema creates the research_results table.
const PostgresSchema = `
        CREATE TABLE IF NOT EXISTS research_results (
            id            UUID PRIMARY KEY,
            company_name  TEXT NOT NULL,
            website       TEXT NOT NULL,
            contact_count INTEGER NOT NULL DEFAULT 0,
            payload       JSONB NOT NULL,
            created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS research_results_created_at_idx ON research_results (created_at DESC);
    `

// PGXResultsRepository implements ResultsRepository using pgx.
type PGXResultsRepository struct {
	pool pgxPool
}

// NewPGXResultsRepository wires a pgx backed repository.
func NewPGXResultsRepository(pool *pgxpool.Pool) *PGXResultsRepository {
	return &PGXResultsRepository{pool: pool}
}

var _ ResultsRepository = (*PGXResultsRepository)(nil)

// EnsureSchema creates the table when it does not exist yet.
func (r *PGXResultsRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("create research_results: %w", err)
	}
	return nil
}

// Save inserts the result or replaces a previously stored copy.
func (r *PGXResultsRepository) Save(ctx context.Context, result *entity.ResearchResult) error {
	if err := validateResult(result); err != nil {
		return err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode research result: %w", err)
	}

	query := `
        INSERT INTO research_results (id, company_name, website, contact_count, payload, created_at)
        VALUES ($1, $2, $3, $4, $5::jsonb, $6)
        ON CONFLICT (id) DO UPDATE SET
            company_name = EXCLUDED.company_name,
            website = EXCLUDED.website,
            contact_count = EXCLUDED.contact_count,
            payload = EXCLUDED.payload;
    `
	summary := result.Summary()
	if _, err := r.pool.Exec(ctx, query,
		summary.ID,
		summary.CompanyName,
		summary.Website,
		summary.ContactCount,
		payload,
		summary.CreatedAt,
	); err != nil {
		return fmt.Errorf("save research result: %w", err)
	}
	return nil
}

// Get loads a stored result by id.
func (r *PGXResultsRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ResearchResult, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM research_results WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get research result: %w", err)
	}

	var result entity.ResearchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode research result: %w", err)
	}
	return &result, nil
}

// List returns summaries of the most recent results.
func (r *PGXResultsRepository) List(ctx context.Context, limit int) ([]entity.ResearchSummary, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, company_name, website, contact_count, created_at
        FROM research_results
        ORDER BY created_at DESC
        LIMIT $1
    `, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list research results: %w", err)
	}
	return scanSummaries(rows)
}

func scanSummaries(rows pgx.Rows) ([]entity.ResearchSummary, error) {
	defer rows.Close()

	var summaries []entity.ResearchSummary
	for rows.Next() {
		var s entity.ResearchSummary
		if err := rows.Scan(&s.ID, &s.CompanyName, &s.Website, &s.ContactCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan research summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate research summaries: %w", err)
	}
	return summaries, nil
}
