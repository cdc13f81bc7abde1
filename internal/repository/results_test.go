package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/octobees/contact-finder/internal/entity"
)

type stubPool struct {
	queryRowFunc func(ctx context.Context, query string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

func (s *stubPool) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if s.queryRowFunc != nil {
		return s.queryRowFunc(ctx, query, args...)
	}
	return &stubRow{scan: func(dest ...any) error { return nil }}
}

func (s *stubPool) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if s.queryFunc != nil {
		return s.queryFunc(ctx, query, args...)
	}
	return nil, errors.New("query not implemented")
}

func (s *stubPool) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if s.execFunc != nil {
		return s.execFunc(ctx, query, args...)
	}
	return pgconn.CommandTag{}, errors.New("exec not implemented")
}

type stubRow struct {
	scan func(dest ...any) error
}

func (s *stubRow) Scan(dest ...any) error {
	if s.scan != nil {
		return s.scan(dest...)
	}
	return nil
}

type stubRows struct {
	scans []func(dest ...any) error
	idx   int
	err   error
}

func (s *stubRows) Close()                                       {}
func (s *stubRows) Err() error                                   { return s.err }
func (s *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (s *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (s *stubRows) Values() ([]any, error)                       { return nil, nil }
func (s *stubRows) RawValues() [][]byte                          { return nil }
func (s *stubRows) Conn() *pgx.Conn                              { return nil }

func (s *stubRows) Next() bool {
	if s.err != nil || s.idx >= len(s.scans) {
		return false
	}
	s.idx++
	return true
}

func (s *stubRows) Scan(dest ...any) error {
	if s.idx == 0 || s.idx > len(s.scans) {
		return errors.New("scan called out of order")
	}
	return s.scans[s.idx-1](dest...)
}

func sampleResult(company string, at time.Time) *entity.ResearchResult {
	return &entity.ResearchResult{
		ID:      uuid.New(),
		Request: entity.ResearchRequest{CompanyName: company, Website: strings.ToLower(company) + ".de"},
		Contacts: []entity.Contact{{
			Value:      "kontakt@" + strings.ToLower(company) + ".de",
			Kind:       entity.KindEmail,
			Category:   entity.CategoryGeneral,
			Confidence: entity.ConfidenceHigh,
			Sources:    []entity.MethodKind{entity.MethodWebsiteScraping},
		}},
		Metadata: entity.ResearchMetadata{StartedAt: at, FinishedAt: at.Add(time.Second)},
	}
}

func TestMemoryResultsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryResultsRepository()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	first := sampleResult("Acme", base)
	second := sampleResult("Globex", base.Add(time.Minute))
	for _, r := range []*entity.ResearchResult{first, second} {
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := repo.Save(ctx, nil); err == nil {
		t.Fatalf("expected error for nil result")
	}

	got, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Contacts[0].Value != "kontakt@acme.de" {
		t.Fatalf("unexpected result %+v", got)
	}
	if _, err := repo.Get(ctx, uuid.New()); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}

	summaries, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 || summaries[0].CompanyName != "Globex" || summaries[1].ContactCount != 1 {
		t.Fatalf("unexpected summaries %+v", summaries)
	}
	if summaries, _ := repo.List(ctx, 1); len(summaries) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(summaries))
	}
}

func TestMemoryResultsRepositoryDropsOldest(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryResultsRepositoryWithCapacity(2)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	var saved []*entity.ResearchResult
	for i, name := range []string{"Acme", "Globex", "Initech"} {
		r := sampleResult(name, base.Add(time.Duration(i)*time.Minute))
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
		saved = append(saved, r)
	}
	// saving an existing id again must not evict anything
	if err := repo.Save(ctx, saved[2]); err != nil {
		t.Fatalf("resave: %v", err)
	}

	if _, err := repo.Get(ctx, saved[0].ID); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected the oldest result to be dropped, got %v", err)
	}
	for _, r := range saved[1:] {
		if _, err := repo.Get(ctx, r.ID); err != nil {
			t.Fatalf("expected %s to be kept: %v", r.Request.CompanyName, err)
		}
	}
	summaries, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 || summaries[0].CompanyName != "Initech" || summaries[1].CompanyName != "Globex" {
		t.Fatalf("unexpected summaries %+v", summaries)
	}
}

func TestPGXResultsRepository_Save(t *testing.T) {
	result := sampleResult("Acme", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))

	called := false
	repo := &PGXResultsRepository{pool: &stubPool{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			called = true
			if !strings.Contains(sql, "ON CONFLICT (id)") {
				t.Fatalf("expected upsert statement, got %s", sql)
			}
			if len(args) != 6 {
				t.Fatalf("expected 6 args, got %d", len(args))
			}
			if args[0] != result.ID || args[1] != "Acme" || args[3] != 1 {
				t.Fatalf("unexpected args %v", args[:4])
			}
			var decoded entity.ResearchResult
			if err := json.Unmarshal(args[4].([]byte), &decoded); err != nil {
				t.Fatalf("payload is not json: %v", err)
			}
			return pgconn.CommandTag{}, nil
		},
	}}

	if err := repo.Save(context.Background(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatalf("expected exec to be called")
	}
	if err := repo.Save(context.Background(), &entity.ResearchResult{}); err == nil {
		t.Fatalf("expected error for result without id")
	}
}

func TestPGXResultsRepository_Get(t *testing.T) {
	result := sampleResult("Acme", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	payload, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	repo := &PGXResultsRepository{pool: &stubPool{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if args[0] == result.ID {
				return &stubRow{scan: func(dest ...any) error {
					*dest[0].(*[]byte) = payload
					return nil
				}}
			}
			return &stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}}

	got, err := repo.Get(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != result.ID || got.Contacts[0].Confidence != entity.ConfidenceHigh {
		t.Fatalf("unexpected result %+v", got)
	}
	if _, err := repo.Get(context.Background(), uuid.New()); !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

func TestPGXResultsRepository_List(t *testing.T) {
	id := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	var gotLimit any
	repo := &PGXResultsRepository{pool: &stubPool{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			gotLimit = args[0]
			return &stubRows{scans: []func(dest ...any) error{
				func(dest ...any) error {
					*dest[0].(*uuid.UUID) = id
					*dest[1].(*string) = "Acme"
					*dest[2].(*string) = "acme.de"
					*dest[3].(*int) = 3
					*dest[4].(*time.Time) = created
					return nil
				},
			}}, nil
		},
	}}

	summaries, err := repo.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != defaultListLimit {
		t.Fatalf("expected default limit, got %v", gotLimit)
	}
	if len(summaries) != 1 || summaries[0].ID != id || summaries[0].ContactCount != 3 {
		t.Fatalf("unexpected summaries %+v", summaries)
	}

	failing := &PGXResultsRepository{pool: &stubPool{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &stubRows{err: errors.New("connection reset")}, nil
		},
	}}
	if _, err := failing.List(context.Background(), 5); err == nil {
		t.Fatalf("expected iteration error")
	}
}

func TestClampLimit(t *testing.T) {
	tests := map[int]int{-1: defaultListLimit, 0: defaultListLimit, 7: 7, 1000: maxListLimit}
	for in, want := range tests {
		if got := clampLimit(in); got != want {
			t.Fatalf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
