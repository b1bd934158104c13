package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var wizardEventSelectColumns = []string{
	"id", "sequence", "timestamp", "session_id", "action", "field_label", "plan_id", "detail",
}

func (r *eventRepo) AppendWizardEvent(ctx context.Context, data WizardEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(tableWizardEvent).
		Columns(wizardEventSelectColumns[1:]...).
		Values(seqNum, time.Now().UTC(), data.SessionID, data.Action, data.FieldLabel, data.PlanID, data.Detail).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save wizard event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryWizardEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]WizardEvent, error) {
	b := builder()
	s := b.Select(wizardEventSelectColumns...).From(b.Table(tableWizardEvent))
	if sessionID != "" {
		s.Where(entsql.EQ("session_id", sessionID))
	}
	query, args := applyQueryOpts(s, opts).Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query wizard events: %w", err)
	}
	defer rows.Close()

	var out []WizardEvent
	for rows.Next() {
		var e WizardEvent
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.SessionID, &e.Action, &e.FieldLabel, &e.PlanID, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan wizard event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
