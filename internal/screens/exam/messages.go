package exam

import "github.com/sapiocode/sapio/internal/viva"

// startedMsg carries the new session.
type startedMsg struct {
	Session viva.Session
	Err     error
}

// scoredMsg carries the evaluation of the last answer.
type scoredMsg struct {
	Eval viva.Evaluation
	Err  error
}

// verdictMsg carries the final report.
type verdictMsg struct {
	Report viva.Report
	Err    error
}
