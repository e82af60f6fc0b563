// Package entdriver implements history.Driver on ent's SQL dialect layer.
// It is database-agnostic and is embedded by the sqlite and postgres
// drivers.
package entdriver

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/ragdesk/pkg/answer"
	"github.com/papercomputeco/ragdesk/pkg/history"
	"github.com/papercomputeco/ragdesk/pkg/history/ent/migrate"
)

const table = "exchanges"

var columns = []string{
	"id", "tenant_id", "document_id", "query", "answer", "citations",
	"outcome", "error", "started_at", "completed_at",
}

// EntDriver provides history operations over an ent SQL driver.
type EntDriver struct {
	Driver *entsql.Driver
}

// Migrate creates or extends the schema.
func (ed *EntDriver) Migrate(ctx context.Context) error {
	return migrate.Create(ctx, ed.Driver)
}

func (ed *EntDriver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(ed.Driver.Dialect())
}

// Put stores an exchange. Returns false if one with the same ID exists.
func (ed *EntDriver) Put(ctx context.Context, e *history.Exchange) (bool, error) {
	if err := history.Validate(e); err != nil {
		return false, err
	}

	citations, err := json.Marshal(nonNil(e.Citations))
	if err != nil {
		return false, fmt.Errorf("failed to marshal citations: %w", err)
	}

	query, args := ed.builder().
		Insert(table).
		Columns(columns...).
		Values(
			e.ID, e.TenantID, e.DocumentID, e.Query, e.Answer, string(citations),
			string(e.Outcome), e.Error, e.StartedAt.UnixNano(), e.CompletedAt.UnixNano(),
		).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()

	var res stdsql.Result
	if err := ed.Driver.Exec(ctx, query, args, &res); err != nil {
		return false, fmt.Errorf("failed to insert exchange: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return n > 0, nil
}

// Get retrieves an exchange by its ID.
func (ed *EntDriver) Get(ctx context.Context, id string) (*history.Exchange, error) {
	b := ed.builder()
	query, args := b.Select(columns...).
		From(b.Table(table)).
		Where(entsql.EQ("id", id)).
		Query()

	exchanges, err := ed.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange: %w", err)
	}
	if len(exchanges) == 0 {
		return nil, history.NotFoundError{ID: id}
	}
	return exchanges[0], nil
}

// List returns matching exchanges, most recently started first.
func (ed *EntDriver) List(ctx context.Context, f history.Filter) ([]*history.Exchange, error) {
	query, args := listQuery(ed.builder(), f)

	exchanges, err := ed.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	return exchanges, nil
}

func listQuery(b *entsql.DialectBuilder, f history.Filter) (string, []any) {
	var preds []*entsql.Predicate
	if f.TenantID != "" {
		preds = append(preds, entsql.EQ("tenant_id", f.TenantID))
	}
	if f.DocumentID != "" {
		preds = append(preds, entsql.EQ("document_id", f.DocumentID))
	}

	s := b.Select(columns...).From(b.Table(table))
	if len(preds) > 0 {
		s.Where(entsql.And(preds...))
	}
	s.OrderBy(entsql.Desc("started_at"), entsql.Asc("id"))
	if f.Limit > 0 {
		s.Limit(f.Limit)
	}
	return s.Query()
}

func (ed *EntDriver) query(ctx context.Context, query string, args []any) ([]*history.Exchange, error) {
	rows := &entsql.Rows{}
	if err := ed.Driver.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*history.Exchange
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Close closes the underlying database.
func (ed *EntDriver) Close() error {
	return ed.Driver.Close()
}

func scan(rows *entsql.Rows) (*history.Exchange, error) {
	var (
		e                  history.Exchange
		citations, outcome string
		started, completed int64
	)

	err := rows.Scan(
		&e.ID, &e.TenantID, &e.DocumentID, &e.Query, &e.Answer, &citations,
		&outcome, &e.Error, &started, &completed,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(citations), &e.Citations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal citations: %w", err)
	}
	if len(e.Citations) == 0 {
		e.Citations = nil
	}

	e.Outcome = history.Outcome(outcome)
	e.StartedAt = time.Unix(0, started)
	e.CompletedAt = time.Unix(0, completed)
	return &e, nil
}

func nonNil(c []answer.Citation) []answer.Citation {
	if c == nil {
		return []answer.Citation{}
	}
	return c
}
