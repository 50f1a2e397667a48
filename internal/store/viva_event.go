package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendVivaAnswer(ctx context.Context, data VivaAnswerEventData) error {
	err := r.append(ctx, tableVivaAnswers,
		[]string{
			"session_id", "student_id", "question_id", "question_type", "transcript",
			"duration_seconds", "score", "matched_concepts", "missing_concepts", "scorer", "acceptable",
		},
		[]any{
			data.SessionID, data.StudentID, data.QuestionID, data.QuestionType, data.Transcript,
			data.DurationSeconds, data.Score, joinList(data.Matched), joinList(data.Missing), data.Scorer, data.Acceptable,
		},
	)
	if err != nil {
		return fmt.Errorf("save viva answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendVivaVerdict(ctx context.Context, data VivaVerdictEventData) error {
	err := r.append(ctx, tableVivaVerdicts,
		[]string{"session_id", "student_id", "verdict", "average_score", "answered", "total_questions"},
		[]any{data.SessionID, data.StudentID, data.Verdict, data.AverageScore, data.Answered, data.TotalQuestions},
	)
	if err != nil {
		return fmt.Errorf("save viva verdict event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryVivaVerdicts(ctx context.Context, studentID string, opts QueryOpts) ([]VivaVerdictRecord, error) {
	sel := selectEvents(tableVivaVerdicts, opts,
		"sequence", "timestamp", "session_id", "student_id", "verdict",
		"average_score", "answered", "total_questions",
	)
	if studentID != "" {
		sel.Where(entsql.EQ("student_id", studentID))
	}

	var out []VivaVerdictRecord
	err := r.query(ctx, sel, func(rows *sql.Rows) error {
		var e VivaVerdictRecord
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.SessionID, &e.StudentID, &e.Verdict,
			&e.AverageScore, &e.Answered, &e.TotalQuestions); err != nil {
			return err
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query viva verdicts: %w", err)
	}
	return out, nil
}
