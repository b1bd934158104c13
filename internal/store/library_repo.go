package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/gpteach/gpteach/internal/plan"
)

var (
	classColumns  = []string{"id", "name", "grade", "subject", "section", "semester", "color", "created_at", "archived_at"}
	folderColumns = []string{"id", "class_id", "parent_id", "name", "color", "created_at", "deleted_at"}
)

// libraryRepo keeps classes and folders in their own tables. Plans carry
// their placement in class_id and folder_id.
type libraryRepo struct {
	db *sql.DB
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *libraryRepo) CreateClass(ctx context.Context, c *plan.Class) error {
	if c == nil || c.ID == "" {
		return errors.New("create class: class has no id")
	}
	if c.Name == "" {
		return plan.ErrNameRequired
	}
	if c.Color == "" {
		c.Color = plan.DefaultColor
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	query, args := builder().Insert(tableClasses).
		Columns(classColumns...).
		Values(c.ID, c.Name, c.Grade, c.Subject, c.Section, c.Semester, c.Color, c.CreatedAt.UTC(), nullTime(c.ArchivedAt)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create class %s: %w", c.Name, err)
	}
	return nil
}

func (r *libraryRepo) GetClass(ctx context.Context, id string) (*plan.Class, error) {
	return getClass(ctx, r.db, id)
}

func getClass(ctx context.Context, q querier, id string) (*plan.Class, error) {
	b := builder()
	query, args := b.Select(classColumns...).
		From(b.Table(tableClasses)).
		Where(entsql.EQ("id", id)).
		Query()

	c, err := scanClass(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("class %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query class %s: %w", id, err)
	}
	return c, nil
}

func (r *libraryRepo) ListClasses(ctx context.Context, archived bool) ([]plan.Class, error) {
	pred := entsql.IsNull("archived_at")
	if archived {
		pred = entsql.NotNull("archived_at")
	}

	b := builder()
	query, args := b.Select(classColumns...).
		From(b.Table(tableClasses)).
		Where(pred).
		OrderBy("name").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var out []plan.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *libraryRepo) ArchiveClass(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.setArchived(ctx, id, &now)
}

func (r *libraryRepo) UnarchiveClass(ctx context.Context, id string) error {
	return r.setArchived(ctx, id, nil)
}

func (r *libraryRepo) setArchived(ctx context.Context, id string, at *time.Time) error {
	c, err := r.GetClass(ctx, id)
	if err != nil {
		return err
	}
	if c.Archived() == (at != nil) {
		return nil
	}

	query, args := builder().Update(tableClasses).
		Set("archived_at", nullTime(at)).
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update class %s: %w", id, err)
	}
	return nil
}

func (r *libraryRepo) DeleteClass(ctx context.Context, id string) error {
	c, err := r.GetClass(ctx, id)
	if err != nil {
		return err
	}
	if !c.Archived() {
		return fmt.Errorf("delete class %s: %w", c.Name, ErrNotArchived)
	}

	return r.withTx(ctx, func(q querier) error {
		b := builder()
		for _, table := range []string{tablePlans, tableFolders} {
			query, args := b.Delete(table).Where(entsql.EQ("class_id", id)).Query()
			if _, err := q.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("delete %s of class %s: %w", table, id, err)
			}
		}
		query, args := b.Delete(tableClasses).Where(entsql.EQ("id", id)).Query()
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete class %s: %w", id, err)
		}
		return nil
	})
}

func (r *libraryRepo) CreateFolder(ctx context.Context, f *plan.Folder) error {
	if f == nil || f.ID == "" {
		return errors.New("create folder: folder has no id")
	}
	if f.Name == "" {
		return plan.ErrNameRequired
	}
	c, err := r.GetClass(ctx, f.ClassID)
	if err != nil {
		return err
	}
	if c.Archived() {
		return fmt.Errorf("create folder in %s: %w", c.Name, ErrArchived)
	}
	if f.ParentID != "" {
		parent, err := getFolder(ctx, r.db, f.ParentID)
		if err != nil {
			return err
		}
		if parent.DeletedAt != nil {
			return fmt.Errorf("folder %s: %w", parent.ID, ErrNotFound)
		}
		if parent.ClassID != f.ClassID {
			return fmt.Errorf("parent folder %s: %w", parent.Name, ErrWrongClass)
		}
	}
	if f.Color == "" {
		f.Color = plan.DefaultColor
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	query, args := builder().Insert(tableFolders).
		Columns(folderColumns...).
		Values(f.ID, f.ClassID, f.ParentID, f.Name, f.Color, f.CreatedAt.UTC(), nullTime(f.DeletedAt)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create folder %s: %w", f.Name, err)
	}
	return nil
}

func getFolder(ctx context.Context, q querier, id string) (*plan.Folder, error) {
	b := builder()
	query, args := b.Select(folderColumns...).
		From(b.Table(tableFolders)).
		Where(entsql.EQ("id", id)).
		Query()

	f, err := scanFolder(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("folder %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query folder %s: %w", id, err)
	}
	return f, nil
}

func (r *libraryRepo) ListFolders(ctx context.Context, classID, parentID string) ([]plan.Folder, error) {
	b := builder()
	query, args := b.Select(folderColumns...).
		From(b.Table(tableFolders)).
		Where(entsql.And(
			entsql.EQ("class_id", classID),
			entsql.EQ("parent_id", parentID),
			entsql.IsNull("deleted_at"),
		)).
		OrderBy("name").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var out []plan.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *libraryRepo) DeleteFolder(ctx context.Context, id string) error {
	f, err := getFolder(ctx, r.db, id)
	if err != nil {
		return err
	}
	if f.DeletedAt != nil {
		return nil
	}

	return r.withTx(ctx, func(q querier) error {
		ids, err := descendantFolders(ctx, q, id)
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		b := builder()
		query, args := b.Update(tableFolders).
			Set("deleted_at", now).
			Where(entsql.In("id", anySlice(ids)...)).
			Query()
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("trash folder %s: %w", f.Name, err)
		}

		planIDs, err := selectIDs(ctx, q, b.Select("id").
			From(b.Table(tablePlans)).
			Where(entsql.And(entsql.In("folder_id", anySlice(ids)...), entsql.IsNull("deleted_at"))))
		if err != nil {
			return fmt.Errorf("plans in folder %s: %w", f.Name, err)
		}

		plans := &planRepo{db: q}
		for _, pid := range planIDs {
			d, err := plans.Get(ctx, pid)
			if err != nil {
				return err
			}
			d.DeletedAt = &now
			if err := plans.Save(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// descendantFolders returns id followed by every live folder nested under it.
func descendantFolders(ctx context.Context, q querier, id string) ([]string, error) {
	all := []string{id}
	frontier := []string{id}
	for len(frontier) > 0 {
		b := builder()
		next, err := selectIDs(ctx, q, b.Select("id").
			From(b.Table(tableFolders)).
			Where(entsql.And(entsql.In("parent_id", anySlice(frontier)...), entsql.IsNull("deleted_at"))))
		if err != nil {
			return nil, fmt.Errorf("subfolders: %w", err)
		}
		all = append(all, next...)
		frontier = next
	}
	return all, nil
}

func (r *libraryRepo) FindPlans(ctx context.Context, f PlanFilter) ([]PlanSummary, error) {
	return (&planRepo{db: r.db}).find(ctx, f)
}

func (r *libraryRepo) MovePlan(ctx context.Context, planID, classID, folderID string) (*plan.Document, error) {
	plans := &planRepo{db: r.db}
	d, err := plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if d.Deleted() {
		return nil, fmt.Errorf("move plan %s: %w", d.Title, ErrTrashed)
	}

	if classID == "" {
		folderID = ""
	} else {
		c, err := r.GetClass(ctx, classID)
		if err != nil {
			return nil, err
		}
		if c.Archived() {
			return nil, fmt.Errorf("move plan to %s: %w", c.Name, ErrArchived)
		}
	}
	if folderID != "" {
		f, err := getFolder(ctx, r.db, folderID)
		if err != nil {
			return nil, err
		}
		if f.DeletedAt != nil {
			return nil, fmt.Errorf("folder %s: %w", f.ID, ErrNotFound)
		}
		if f.ClassID != classID {
			return nil, fmt.Errorf("move plan to %s: %w", f.Name, ErrWrongClass)
		}
	}

	d.MoveTo(classID, folderID)
	if err := plans.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *libraryRepo) DuplicatePlan(ctx context.Context, planID string) (*plan.Document, error) {
	plans := &planRepo{db: r.db}
	d, err := plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	cp := d.Duplicate()
	if err := plans.Save(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

func (r *libraryRepo) TrashPlan(ctx context.Context, planID string) error {
	plans := &planRepo{db: r.db}
	d, err := plans.Get(ctx, planID)
	if err != nil {
		return err
	}
	if d.Deleted() {
		return nil
	}
	now := time.Now().UTC()
	d.DeletedAt = &now
	return plans.Save(ctx, d)
}

// RestorePlan unfiles the plan from a folder or class that no longer
// exists.
func (r *libraryRepo) RestorePlan(ctx context.Context, planID string) error {
	plans := &planRepo{db: r.db}
	d, err := plans.Get(ctx, planID)
	if err != nil {
		return err
	}
	if !d.Deleted() {
		return nil
	}

	if d.FolderID != "" {
		f, err := getFolder(ctx, r.db, d.FolderID)
		switch {
		case errors.Is(err, ErrNotFound):
			d.FolderID = ""
		case err != nil:
			return err
		case f.DeletedAt != nil:
			d.FolderID = ""
		}
	}
	if d.ClassID != "" {
		if _, err := r.GetClass(ctx, d.ClassID); errors.Is(err, ErrNotFound) {
			d.ClassID, d.FolderID = "", ""
		} else if err != nil {
			return err
		}
	}

	d.DeletedAt = nil
	return plans.Save(ctx, d)
}

func (r *libraryRepo) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// selectIDs drains the id column before returning, so the single
// connection is free for the next statement.
func selectIDs(ctx context.Context, q querier, s *entsql.Selector) ([]string, error) {
	query, args := s.Query()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanClass(s scanner) (*plan.Class, error) {
	var c plan.Class
	var archived sql.NullTime
	if err := s.Scan(&c.ID, &c.Name, &c.Grade, &c.Subject, &c.Section, &c.Semester, &c.Color, &c.CreatedAt, &archived); err != nil {
		return nil, err
	}
	c.ArchivedAt = timePtr(archived)
	return &c, nil
}

func scanFolder(s scanner) (*plan.Folder, error) {
	var f plan.Folder
	var deleted sql.NullTime
	if err := s.Scan(&f.ID, &f.ClassID, &f.ParentID, &f.Name, &f.Color, &f.CreatedAt, &deleted); err != nil {
		return nil, err
	}
	f.DeletedAt = timePtr(deleted)
	return &f, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
