package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/gpteach/gpteach/internal/plan"
)

// planRepo stores each document as a JSON column next to the metadata the
// list view needs.
type planRepo struct {
	db querier
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *planRepo) Save(ctx context.Context, d *plan.Document) error {
	if d == nil || d.ID == "" {
		return errors.New("save plan: document has no id")
	}

	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	now := time.Now().UTC()
	created, updated := d.CreatedAt, d.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = now
	}

	b := builder()
	query, args := b.Insert(tablePlans).
		Columns("id", "title", "template_id", "grade", "subject", "topic", "class_id", "folder_id",
			"document", "created_at", "updated_at", "deleted_at").
		Values(d.ID, d.Title, d.TemplateID, d.Grade, d.Subject, d.Topic, d.ClassID, d.FolderID,
			string(raw), created.UTC(), updated.UTC(), nullTime(d.DeletedAt)).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save plan %s: %w", d.ID, err)
	}
	return nil
}

func (r *planRepo) Get(ctx context.Context, id string) (*plan.Document, error) {
	b := builder()
	query, args := b.Select("document").
		From(b.Table(tablePlans)).
		Where(entsql.EQ("id", id)).
		Query()

	var raw string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("plan %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query plan %s: %w", id, err)
	}

	var d plan.Document
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("unmarshal plan %s: %w", id, err)
	}
	return &d, nil
}

// List returns plans that are not in the trash.
func (r *planRepo) List(ctx context.Context, limit int) ([]PlanSummary, error) {
	return r.find(ctx, PlanFilter{Limit: limit})
}

func (r *planRepo) find(ctx context.Context, f PlanFilter) ([]PlanSummary, error) {
	preds := []*entsql.Predicate{entsql.IsNull("deleted_at")}
	if f.Trashed {
		preds[0] = entsql.NotNull("deleted_at")
	}
	switch {
	case f.Unfiled:
		preds = append(preds, entsql.EQ("class_id", ""))
	case f.ClassID != "":
		preds = append(preds, entsql.EQ("class_id", f.ClassID))
		if f.FolderID != "" {
			preds = append(preds, entsql.EQ("folder_id", f.FolderID))
		}
	}

	b := builder()
	s := b.Select("id", "title", "template_id", "grade", "subject", "topic", "class_id", "folder_id", "updated_at").
		From(b.Table(tablePlans)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("updated_at"))
	if f.Limit > 0 {
		s.Limit(f.Limit)
	}
	query, args := s.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []PlanSummary
	for rows.Next() {
		var p PlanSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.TemplateID, &p.Grade, &p.Subject, &p.Topic,
			&p.ClassID, &p.FolderID, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes the plan permanently.
func (r *planRepo) Delete(ctx context.Context, id string) error {
	query, args := builder().Delete(tablePlans).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	return nil
}
