package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// eventColumns returns the id, sequence and timestamp columns shared by all
// event tables. Sequence comes from the global counter so events of
// different kinds can be ordered against each other.
func eventColumns() []*schema.Column {
	return []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
	}
}

func eventTable(name string, cols ...*schema.Column) *schema.Table {
	base := eventColumns()
	t := &schema.Table{
		Name:       name,
		Columns:    append(base, cols...),
		PrimaryKey: []*schema.Column{base[0]},
	}
	t.Indexes = []*schema.Index{
		{Name: name + "_timestamp", Columns: []*schema.Column{base[2]}},
	}
	return t
}

func str(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Default: ""}
}

func text(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: 1 << 20, Default: ""}
}

func num(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeFloat64, Default: 0}
}

func integer(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt, Default: 0}
}

func boolean(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeBool, Default: false}
}

const (
	tableSnapshots     = "snapshots"
	tableLLMRequests   = "llm_request_events"
	tableMasteryEvents = "mastery_events"
	tableHintEvents    = "hint_events"
	tableVivaAnswers   = "viva_answer_events"
	tableVivaVerdicts  = "viva_verdict_events"
)

var (
	snapshotsTable = &schema.Table{
		Name: tableSnapshots,
		Columns: []*schema.Column{
			{Name: "id", Type: field.TypeInt, Increment: true},
			{Name: "sequence", Type: field.TypeInt64},
			{Name: "timestamp", Type: field.TypeTime},
			{Name: "data", Type: field.TypeJSON},
		},
	}

	llmRequestsTable = eventTable(tableLLMRequests,
		str("provider"),
		str("model"),
		str("purpose"),
		integer("input_tokens"),
		integer("output_tokens"),
		&schema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		boolean("success"),
		text("error_message"),
		text("request_body"),
		text("response_body"),
	)

	masteryEventsTable = eventTable(tableMasteryEvents,
		str("student_id"),
		str("concept"),
		boolean("correct"),
		num("old_mastery"),
		num("new_mastery"),
		num("p_learn"),
		num("p_slip"),
		num("p_guess"),
		text("explanation"),
	)

	hintEventsTable = eventTable(tableHintEvents,
		str("session_id"),
		str("student_id"),
		str("concept"),
		str("focus_type"),
		integer("hint_level"),
		str("path"),
		num("urgency"),
		str("reasons"),
		text("hint_text"),
		boolean("fallback"),
	)

	vivaAnswersTable = eventTable(tableVivaAnswers,
		str("session_id"),
		str("student_id"),
		str("question_id"),
		str("question_type"),
		text("transcript"),
		num("duration_seconds"),
		num("score"),
		str("matched_concepts"),
		str("missing_concepts"),
		str("scorer"),
		boolean("acceptable"),
	)

	vivaVerdictsTable = eventTable(tableVivaVerdicts,
		str("session_id"),
		str("student_id"),
		str("verdict"),
		num("average_score"),
		integer("answered"),
		integer("total_questions"),
	)

	// Tables lists every table the store migrates.
	Tables = []*schema.Table{
		snapshotsTable,
		llmRequestsTable,
		masteryEventsTable,
		hintEventsTable,
		vivaAnswersTable,
		vivaVerdictsTable,
	}
)

func init() {
	snapshotsTable.PrimaryKey = []*schema.Column{snapshotsTable.Columns[0]}
	snapshotsTable.Indexes = []*schema.Index{
		{Name: "snapshots_timestamp", Columns: []*schema.Column{snapshotsTable.Columns[2]}},
	}
	for _, t := range []*schema.Table{masteryEventsTable, hintEventsTable, vivaAnswersTable, vivaVerdictsTable} {
		t.Indexes = append(t.Indexes, &schema.Index{
			Name:    t.Name + "_student_id",
			Columns: []*schema.Column{columnNamed(t, "student_id")},
		})
	}
}

func columnNamed(t *schema.Table, name string) *schema.Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	panic("store: table " + t.Name + " has no column " + name)
}
