package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendHintEvent(ctx context.Context, data HintEventData) error {
	err := r.append(ctx, tableHintEvents,
		[]string{"session_id", "student_id", "concept", "focus_type", "hint_level", "path", "urgency", "reasons", "hint_text", "fallback"},
		[]any{data.SessionID, data.StudentID, data.Concept, data.FocusType, data.HintLevel, data.Path, data.Urgency, joinList(data.Reasons), data.HintText, data.Fallback},
	)
	if err != nil {
		return fmt.Errorf("save hint event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryHintEvents(ctx context.Context, studentID string, opts QueryOpts) ([]HintEventRecord, error) {
	sel := selectEvents(tableHintEvents, opts,
		"sequence", "timestamp", "session_id", "student_id", "concept", "focus_type",
		"hint_level", "path", "urgency", "reasons", "hint_text", "fallback",
	)
	if studentID != "" {
		sel.Where(entsql.EQ("student_id", studentID))
	}

	var out []HintEventRecord
	err := r.query(ctx, sel, func(rows *sql.Rows) error {
		var (
			e       HintEventRecord
			reasons string
		)
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.SessionID, &e.StudentID, &e.Concept, &e.FocusType,
			&e.HintLevel, &e.Path, &e.Urgency, &reasons, &e.HintText, &e.Fallback); err != nil {
			return err
		}
		e.Reasons = splitList(reasons)
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query hint events: %w", err)
	}
	return out, nil
}
