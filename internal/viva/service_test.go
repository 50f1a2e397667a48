package viva

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapiocode/sapio/internal/analyzer"
	"github.com/sapiocode/sapio/internal/llm"
	"github.com/sapiocode/sapio/internal/store"
)

// scriptedJudge returns the given scores in order.
type scriptedJudge struct {
	mu     sync.Mutex
	scores []float64
	calls  int
}

func (j *scriptedJudge) Judge(_ context.Context, in JudgeInput) llm.Result[Evaluation] {
	j.mu.Lock()
	defer j.mu.Unlock()
	score := j.scores[j.calls%len(j.scores)]
	j.calls++
	return llm.Ok(Evaluation{
		QuestionID: in.Question.ID,
		Score:      score,
		Acceptable: score >= AcceptableScore,
		Scorer:     ScorerLLM,
		Missing:    []string{},
		Matched:    []string{},
	})
}

type failingJudge struct{}

func (failingJudge) Judge(context.Context, JudgeInput) llm.Result[Evaluation] {
	return llm.Fail[Evaluation](errors.New("provider down"))
}

type hangingJudge struct{}

func (hangingJudge) Judge(context.Context, JudgeInput) llm.Result[Evaluation] {
	time.Sleep(time.Second)
	return llm.Ok(Evaluation{Score: 1})
}

func newTestService(t *testing.T, judge Judge, events store.EventRepo) *Service {
	t.Helper()
	return NewService(DefaultConfig(), Options{
		Judge:     judge,
		Events:    events,
		Generator: NewSeededGenerator(7),
	})
}

func TestService_PassAfterThreeGoodAnswers(t *testing.T) {
	svc := newTestService(t, &scriptedJudge{scores: []float64{0.8, 0.7, 0.75}}, nil)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "stu-1", unboundedRecursion, 3)
	require.NoError(t, err)
	require.Len(t, sess.Questions, 3)

	for range 3 {
		_, err := svc.Submit(ctx, sess.ID, "it calls itself", 12)
		require.NoError(t, err)
	}

	rep, err := svc.Verdict(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, VerdictPass, rep.Verdict)
	assert.Equal(t, 0.75, rep.AverageScore)
	assert.Equal(t, 3, rep.Answered)
	assert.Len(t, rep.Breakdown, 3)
	assert.NotNil(t, rep.Overlap)

	_, err = svc.Submit(ctx, sess.ID, "late", 1)
	assert.ErrorIs(t, err, ErrSessionComplete)

	again, err := svc.Verdict(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.Verdict, again.Verdict)
}

func TestService_InconclusiveBelowMinimum(t *testing.T) {
	svc := newTestService(t, &scriptedJudge{scores: []float64{1}}, nil)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "stu-1", factorial, 3)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, sess.ID, "perfect answer", 5)
	require.NoError(t, err)

	rep, err := svc.Verdict(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, VerdictInconclusive, rep.Verdict)
	assert.Equal(t, 1, rep.Answered)
	assert.Contains(t, rep.Message, "at least 2")

	// An inconclusive verdict leaves the session open.
	_, err = svc.Submit(ctx, sess.ID, "another", 5)
	assert.NoError(t, err)
}

func TestService_UnknownSession(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "nope", "x", 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Verdict(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Current("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Session("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestService_NoMoreQuestions(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	sess, err := svc.Start(ctx, "stu-1", factorial, 2)
	require.NoError(t, err)
	q, err := svc.Current(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "q1", q.ID)

	for range 2 {
		_, err := svc.Submit(ctx, sess.ID, "answer", 1)
		require.NoError(t, err)
	}
	_, err = svc.Submit(ctx, sess.ID, "extra", 1)
	assert.ErrorIs(t, err, ErrNoMoreQuestions)
	_, err = svc.Current(sess.ID)
	assert.ErrorIs(t, err, ErrNoMoreQuestions)
}

func TestService_StartRequiresStudent(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.Start(context.Background(), " ", factorial, 3)
	assert.Error(t, err)
}

func TestService_ConcurrentSubmissionsAreSerialized(t *testing.T) {
	svc := newTestService(t, &scriptedJudge{scores: []float64{0.5}}, nil)
	ctx := context.Background()
	sess, err := svc.Start(ctx, "stu-1", unboundedRecursion, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, exhausted int
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, sess.ID, "answer", 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrNoMoreQuestions):
				exhausted++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 7, exhausted)

	got, err := svc.Session(sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Evaluations, 3)
	for i, ev := range got.Evaluations {
		assert.Equal(t, got.Questions[i].ID, ev.QuestionID)
		assert.Equal(t, got.Questions[i].ID, got.Answers[i].QuestionID)
	}
}

func TestService_FallsBackWhenJudgeFails(t *testing.T) {
	svc := newTestService(t, failingJudge{}, nil)
	ctx := context.Background()
	sess, err := svc.Start(ctx, "stu-1", unboundedRecursion, 3)
	require.NoError(t, err)

	ev, err := svc.Submit(ctx, sess.ID, "It calls itself and has no base case so it never stops.", 20)
	require.NoError(t, err)
	assert.Equal(t, ScorerOverlap, ev.Scorer)
	assert.Equal(t, sess.Questions[0].ID, ev.QuestionID)
	require.NotNil(t, ev.CodeOverlap, "overlap against the analysis is attached")
	assert.Contains(t, ev.CodeOverlap.Matched, "recursion")
	assert.Equal(t, ASTConcepts(sess.Analysis), ev.CodeOverlap.Concepts)
}

func TestVerifier_FallbackUsesAnalysisWhenQuestionNamesNoConcepts(t *testing.T) {
	v := NewVerifier(nil, 0, nil)
	r := analyzer.Analyze(unboundedRecursion)
	ev := v.Evaluate(context.Background(), JudgeInput{
		Question: Question{ID: "q3"},
		Answer:   Answer{Transcript: "It keeps calling itself with n minus one and I forgot the base case."},
		Analysis: r,
	})
	require.NotNil(t, ev.CodeOverlap)
	assert.Equal(t, ev.CodeOverlap.Score, ev.Score)
	assert.Greater(t, ev.Score, 0.0)
	assert.Contains(t, ev.Matched, "recursion")
}

func TestVerifier_TimeoutFallsBack(t *testing.T) {
	v := NewVerifier(hangingJudge{}, 20*time.Millisecond, nil)
	q := Question{ID: "q1", ExpectedConcepts: []string{"recursion", "base_case"}}

	start := time.Now()
	ev := v.Evaluate(context.Background(), JudgeInput{
		Question: q,
		Answer:   Answer{Transcript: "it calls itself and stops when n is one"},
	})
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, ScorerOverlap, ev.Scorer)
	assert.Equal(t, 1.0, ev.Score)
	assert.True(t, ev.Acceptable)
}

func TestVerifier_NoJudge(t *testing.T) {
	v := NewVerifier(nil, 0, nil)
	ev := v.Evaluate(context.Background(), JudgeInput{
		Question: Question{ID: "q2", ExpectedConcepts: []string{"iteration", "accumulation"}},
		Answer:   Answer{Transcript: "the loop adds each number to the total"},
	})
	assert.Equal(t, ScorerOverlap, ev.Scorer)
	assert.Equal(t, 1.0, ev.Score)
	assert.Equal(t, "You covered the key concepts.", ev.Feedback)
	assert.Nil(t, ev.CodeOverlap, "no analysis, nothing to attach")
}

func TestOverlapEvaluation_Feedback(t *testing.T) {
	ev := OverlapEvaluation(Question{ID: "q1", ExpectedConcepts: []string{"recursion", "call_stack"}}, "it is recursive")
	assert.Equal(t, 0.5, ev.Score)
	assert.Equal(t, []string{"call_stack"}, ev.Missing)
	assert.Equal(t, "Try to also explain: call stack.", ev.Feedback)
	assert.True(t, ev.Acceptable)
}

func TestLLMJudge_ParsesAndClamps(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockJSON(map[string]any{
		"score":               1.4,
		"matched_concepts":    []string{"recursion"},
		"missing_concepts":    []string{"base case"},
		"understanding_level": "adequate",
		"feedback":            "Say when it stops.",
		"red_flags":           []string{},
	}))
	j := NewLLMJudge(mock, DefaultJudgeConfig())

	r := analyzer.Analyze(unboundedRecursion)
	res := j.Judge(context.Background(), JudgeInput{
		Question: Question{ID: "q1", Text: "What stops it?", ExpectedConcepts: []string{"recursion"}},
		Answer:   Answer{Transcript: "it calls f again"},
		Code:     unboundedRecursion,
		Analysis: r,
	})
	require.True(t, res.IsOk(), "judge failed: %v", res.Err)
	assert.Equal(t, 1.0, res.Value.Score)
	assert.Equal(t, ScorerLLM, res.Value.Scorer)
	assert.Equal(t, "q1", res.Value.QuestionID)
	assert.Equal(t, "adequate", res.Value.Understanding)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, JudgementSchema, req.Schema)
	prompt := req.Messages[0].Content
	assert.Contains(t, prompt, "Algorithm pattern : recursive")
	assert.Contains(t, prompt, "[no base case]")
	assert.Contains(t, prompt, "missing_base_case at line 1")
	assert.Contains(t, prompt, `"it calls f again"`)
}

func TestLLMJudge_ProviderError(t *testing.T) {
	j := NewLLMJudge(llm.NewMockProvider(), DefaultJudgeConfig())
	res := j.Judge(context.Background(), JudgeInput{Question: Question{ID: "q1"}})
	assert.False(t, res.IsOk())
	assert.True(t, strings.Contains(res.Err.Error(), "viva judge"))
}

func TestService_RecordsEvents(t *testing.T) {
	s, err := store.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	svc := newTestService(t, &scriptedJudge{scores: []float64{0.2}}, s.EventRepo())
	ctx := context.Background()
	sess, err := svc.Start(ctx, "stu-9", factorial, 2)
	require.NoError(t, err)
	for range 2 {
		_, err := svc.Submit(ctx, sess.ID, "not sure", 3)
		require.NoError(t, err)
	}
	rep, err := svc.Verdict(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, VerdictFail, rep.Verdict)

	verdicts, err := s.EventRepo().QueryVivaVerdicts(ctx, "stu-9", store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, verdicts, 1)
	assert.Equal(t, "fail", verdicts[0].Verdict)
	assert.Equal(t, 2, verdicts[0].Answered)
}

func TestService_Prune(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.Start(context.Background(), "stu-1", factorial, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, svc.Prune(time.Now().Add(-time.Hour)))
	assert.Equal(t, 1, svc.Prune(time.Now().Add(time.Hour)))
	assert.Equal(t, 0, svc.Len())
}

func TestBuildReport(t *testing.T) {
	cfg := DefaultConfig()
	sess := &Session{
		ID: "s1",
		Questions: []Question{
			{ID: "q1", Text: "one"}, {ID: "q2", Text: "two"}, {ID: "q3", Text: "three"},
		},
		Evaluations: []Evaluation{
			{QuestionID: "q1", Score: 0.5, Missing: []string{"base_case", "recursion"}},
			{QuestionID: "q2", Score: 0.5, Missing: []string{"recursion"}},
			{QuestionID: "q3", Score: 0.35, Missing: []string{"loops", "edge case", "recursion", "base_case"}},
		},
	}

	rep := BuildReport(sess, cfg)
	assert.Equal(t, VerdictWeak, rep.Verdict)
	assert.Equal(t, 0.45, rep.AverageScore)
	assert.Equal(t, []string{"Review: recursion", "Review: base_case", "Review: loops"}, rep.ImprovementAreas)
	assert.Equal(t, "two", rep.Breakdown[1].Question)
	assert.Nil(t, rep.Overlap)

	sess.Evaluations = sess.Evaluations[:2]
	sess.Evaluations[0].Score, sess.Evaluations[1].Score = 0.1, 0.2
	assert.Equal(t, VerdictFail, BuildReport(sess, cfg).Verdict)
}
