package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/contact-finder/internal/entity"
)

// SQLiteSchema creates the research_results table. created_at holds unix
// milliseconds so ordering does not depend on time formatting.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS research_results (
	id TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	website TEXT NOT NULL,
	contact_count INTEGER NOT NULL,
	payload TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS research_results_created_at_idx ON research_results (created_at DESC);
`

// SQLiteResultsRepository implements ResultsRepository on a database/sql
// handle opened with the modernc.org/sqlite driver.
type SQLiteResultsRepository struct {
	db *sql.DB
}

var _ ResultsRepository = (*SQLiteResultsRepository)(nil)

// NewSQLiteResultsRepository applies the schema and returns the repository.
func NewSQLiteResultsRepository(ctx context.Context, db *sql.DB) (*SQLiteResultsRepository, error) {
	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		return nil, fmt.Errorf("create research_results: %w", err)
	}
	return &SQLiteResultsRepository{db: db}, nil
}

func (r *SQLiteResultsRepository) Save(ctx context.Context, result *entity.ResearchResult) error {
	if err := validateResult(result); err != nil {
		return err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode research result: %w", err)
	}

	summary := result.Summary()
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO research_results (id, company_name, website, contact_count, payload, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		company_name = excluded.company_name,
		website = excluded.website,
		contact_count = excluded.contact_count,
		payload = excluded.payload
	`,
		summary.ID.String(),
		summary.CompanyName,
		summary.Website,
		summary.ContactCount,
		string(payload),
		summary.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save research result: %w", err)
	}
	return nil
}

func (r *SQLiteResultsRepository) Get(ctx context.Context, id uuid.UUID) (*entity.ResearchResult, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM research_results WHERE id = ?`, id.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get research result: %w", err)
	}

	var result entity.ResearchResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode research result: %w", err)
	}
	return &result, nil
}

func (r *SQLiteResultsRepository) List(ctx context.Context, limit int) ([]entity.ResearchSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, company_name, website, contact_count, created_at
	FROM research_results
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list research results: %w", err)
	}
	defer rows.Close()

	var summaries []entity.ResearchSummary
	for rows.Next() {
		var (
			s         entity.ResearchSummary
			id        string
			createdAt int64
		)
		if err := rows.Scan(&id, &s.CompanyName, &s.Website, &s.ContactCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan research summary: %w", err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse research id %q: %w", id, err)
		}
		s.CreatedAt = time.UnixMilli(createdAt).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate research summaries: %w", err)
	}
	return summaries, nil
}
