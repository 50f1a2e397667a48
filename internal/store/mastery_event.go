package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendMasteryEvent(ctx context.Context, data MasteryEventData) error {
	err := r.append(ctx, tableMasteryEvents,
		[]string{"student_id", "concept", "correct", "old_mastery", "new_mastery", "p_learn", "p_slip", "p_guess", "explanation"},
		[]any{data.StudentID, data.Concept, data.Correct, data.OldMastery, data.NewMastery, data.Learn, data.Slip, data.Guess, data.Explanation},
	)
	if err != nil {
		return fmt.Errorf("save mastery event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryMasteryEvents(ctx context.Context, studentID string, opts QueryOpts) ([]MasteryEventRecord, error) {
	sel := selectEvents(tableMasteryEvents, opts,
		"sequence", "timestamp", "student_id", "concept", "correct",
		"old_mastery", "new_mastery", "p_learn", "p_slip", "p_guess", "explanation",
	)
	if studentID != "" {
		sel.Where(entsql.EQ("student_id", studentID))
	}

	var out []MasteryEventRecord
	err := r.query(ctx, sel, func(rows *sql.Rows) error {
		var e MasteryEventRecord
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.StudentID, &e.Concept, &e.Correct,
			&e.OldMastery, &e.NewMastery, &e.Learn, &e.Slip, &e.Guess, &e.Explanation); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query mastery events: %w", err)
	}
	return out, nil
}
