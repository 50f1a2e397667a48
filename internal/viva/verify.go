package viva

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sapiocode/sapio/internal/llm"
	"github.com/sapiocode/sapio/internal/logger"
	"github.com/sapiocode/sapio/internal/metrics"
)

// DefaultJudgeTimeout bounds a single judge call.
const DefaultJudgeTimeout = 8 * time.Second

// Verifier scores answers with the judge when one is configured and the
// concept-overlap scorer otherwise.
type Verifier struct {
	judge   Judge
	timeout time.Duration
	log     *logger.Logger
}

// NewVerifier creates a verifier. judge may be nil; a non-positive timeout
// uses DefaultJudgeTimeout.
func NewVerifier(judge Judge, timeout time.Duration, log *logger.Logger) *Verifier {
	if timeout <= 0 {
		timeout = DefaultJudgeTimeout
	}
	return &Verifier{judge: judge, timeout: timeout, log: logger.OrNop(log)}
}

// Evaluate scores one answer. It never blocks longer than the judge
// timeout and always returns an evaluation.
func (v *Verifier) Evaluate(ctx context.Context, in JudgeInput) Evaluation {
	if v.judge == nil {
		metrics.RecordLLMFallback(llm.PurposeVivaJudge, "disabled")
		return fallbackEvaluation(in)
	}

	res := v.judgeWithTimeout(ctx, in)
	if res.IsOk() {
		return res.Value
	}

	reason := "error"
	if errors.Is(res.Err, context.DeadlineExceeded) {
		reason = "timeout"
	}
	metrics.RecordLLMFallback(llm.PurposeVivaJudge, reason)
	v.log.Warn("viva judge unavailable, scoring by concept overlap",
		"question_id", in.Question.ID, "reason", reason, "error", res.Err)
	return fallbackEvaluation(in)
}

// judgeWithTimeout runs the judge in its own goroutine so a provider that
// ignores cancellation still cannot hold the caller past the deadline.
func (v *Verifier) judgeWithTimeout(ctx context.Context, in JudgeInput) llm.Result[Evaluation] {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	done := make(chan llm.Result[Evaluation], 1)
	go func() { done <- v.judge.Judge(ctx, in) }()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return llm.Fail[Evaluation](ctx.Err())
	}
}

// fallbackEvaluation scores the answer against the question's concepts.
// With a valid analysis the overlap against every concept the code shows is
// attached, and it becomes the score when the question names no concepts.
func fallbackEvaluation(in JudgeInput) Evaluation {
	ev := OverlapEvaluation(in.Question, in.Answer.Transcript)
	if in.Analysis == nil || !in.Analysis.IsValid {
		return ev
	}
	o := ComputeOverlap(in.Analysis, in.Answer.Transcript)
	ev.CodeOverlap = &o
	if len(in.Question.ExpectedConcepts) == 0 && len(o.Concepts) > 0 {
		ev.Score = o.Score
		ev.Matched = o.Matched
		ev.Missing = o.Missed
		ev.Feedback = overlapFeedback(o)
		ev.Acceptable = o.Score >= AcceptableScore
	}
	return ev
}

// OverlapEvaluation scores transcript by how many of the question's
// expected concepts it mentions.
func OverlapEvaluation(q Question, transcript string) Evaluation {
	o := ScoreConcepts(q.ExpectedConcepts, transcript)
	return Evaluation{
		QuestionID: q.ID,
		Score:      o.Score,
		Matched:    o.Matched,
		Missing:    o.Missed,
		Feedback:   overlapFeedback(o),
		Acceptable: o.Score >= AcceptableScore,
		Scorer:     ScorerOverlap,
	}
}

func overlapFeedback(o Overlap) string {
	if len(o.Missed) == 0 {
		return "You covered the key concepts."
	}
	missed := make([]string, len(o.Missed))
	for i, c := range o.Missed {
		missed[i] = normalize(c)
	}
	return fmt.Sprintf("Try to also explain: %s.", strings.Join(missed, ", "))
}
