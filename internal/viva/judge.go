package viva

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/sapiocode/sapio/internal/analyzer"
	"github.com/sapiocode/sapio/internal/llm"
)

// JudgeConfig holds generation settings for the judge.
type JudgeConfig struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// DefaultJudgeConfig returns sensible defaults.
func DefaultJudgeConfig() JudgeConfig {
	return JudgeConfig{
		MaxTokens:   512,
		Temperature: 0.2,
	}
}

// Judge scores an answer semantically. Failures are returned in the
// Result, never panicked or swallowed.
type Judge interface {
	Judge(ctx context.Context, in JudgeInput) llm.Result[Evaluation]
}

// JudgeInput is everything the judge sees about one answer.
type JudgeInput struct {
	Question Question
	Answer   Answer
	Code     string
	Analysis *analyzer.Result
}

// LLMJudge asks the text-generation service to grade an answer against the
// analysis of the student's code.
type LLMJudge struct {
	provider llm.Provider
	cfg      JudgeConfig
}

// NewLLMJudge creates a judge backed by provider.
func NewLLMJudge(provider llm.Provider, cfg JudgeConfig) *LLMJudge {
	return &LLMJudge{provider: provider, cfg: cfg}
}

type judgementOutput struct {
	Score         float64  `json:"score"`
	Matched       []string `json:"matched_concepts"`
	Missing       []string `json:"missing_concepts"`
	Understanding string   `json:"understanding_level"`
	Feedback      string   `json:"feedback"`
	RedFlags      []string `json:"red_flags"`
}

func (j *LLMJudge) Judge(ctx context.Context, in JudgeInput) llm.Result[Evaluation] {
	return llm.Call(func() (Evaluation, error) {
		ctx := llm.WithPurpose(ctx, llm.PurposeVivaJudge)

		prompt, err := buildJudgePrompt(in)
		if err != nil {
			return Evaluation{}, fmt.Errorf("build judge prompt: %w", err)
		}

		resp, err := j.provider.Generate(ctx, llm.Request{
			System:      judgeSystemPrompt,
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
			Schema:      JudgementSchema,
			MaxTokens:   j.cfg.MaxTokens,
			Temperature: j.cfg.Temperature,
		})
		if err != nil {
			return Evaluation{}, fmt.Errorf("viva judge: %w", err)
		}

		var out judgementOutput
		if err := json.Unmarshal(resp.Content, &out); err != nil {
			return Evaluation{}, fmt.Errorf("parse judgement: %w", err)
		}

		score := min(max(out.Score, 0), 1)
		return Evaluation{
			QuestionID:    in.Question.ID,
			Score:         score,
			Matched:       nonNil(out.Matched),
			Missing:       nonNil(out.Missing),
			Feedback:      out.Feedback,
			Acceptable:    score >= AcceptableScore,
			Scorer:        ScorerLLM,
			Understanding: out.Understanding,
			RedFlags:      out.RedFlags,
		}, nil
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

const judgeSystemPrompt = `You are an expert programming instructor evaluating whether a student understands code they submitted. The static analysis in the prompt is ground truth about what the code does. Be fair but thorough.`

var judgeUserTemplate = template.Must(template.New("judge").Parse(`You are evaluating a student's verbal explanation of their code.

FULL CODE SUBMITTED:
` + "```python" + `
{{.FullCode}}
` + "```" + `

CODE SEGMENT BEING DISCUSSED:
` + "```python" + `
{{.Segment}}
` + "```" + `

AST ANALYSIS (ground truth about what the code actually does):
  Algorithm pattern : {{.Pattern}}
  Concepts present  : {{.Concepts}}
  Function summary  : {{.Functions}}
  Detected issues   : {{.Issues}}

QUESTION ASKED:
{{.Question}}

STUDENT'S VERBAL RESPONSE (transcribed from audio):
"{{.Response}}"

EXPECTED CONCEPTS TO COVER:
{{.Expected}}

Judge whether the student genuinely understands their code:
1. Does the explanation match what the analysis says the code does?
2. Do they use appropriate terminology for the algorithm pattern?
3. Can they say why the code works rather than reading it line by line?
4. Are there signs they did not write this code (vague, evasive, incorrect)?
`))

type judgePromptData struct {
	FullCode  string
	Segment   string
	Pattern   string
	Concepts  string
	Functions string
	Issues    string
	Question  string
	Response  string
	Expected  string
}

func buildJudgePrompt(in JudgeInput) (string, error) {
	data := judgePromptData{
		FullCode:  in.Code,
		Segment:   in.Question.TargetCode,
		Pattern:   "unknown",
		Concepts:  "N/A",
		Functions: "N/A",
		Issues:    "N/A",
		Question:  in.Question.Text,
		Response:  in.Answer.Transcript,
		Expected:  strings.Join(in.Question.ExpectedConcepts, ", "),
	}
	if data.Segment == "" {
		data.Segment = in.Code
	}

	if r := in.Analysis; r != nil {
		data.Pattern = string(r.Pattern)
		if len(r.Concepts) > 0 {
			data.Concepts = strings.Join(r.Concepts, ", ")
		}
		if len(r.Functions) > 0 {
			descs := make([]string, len(r.Functions))
			for i, fn := range r.Functions {
				descs[i] = analyzer.DescribeFunction(fn)
			}
			data.Functions = strings.Join(descs, "; ")
		}
		data.Issues = "none detected"
		if len(r.IssueLocations) > 0 {
			issues := make([]string, len(r.IssueLocations))
			for i, loc := range r.IssueLocations {
				issues[i] = fmt.Sprintf("%s at line %d: %s", loc.Kind, loc.Line, loc.Description)
			}
			data.Issues = strings.Join(issues, "; ")
		}
	}

	var buf bytes.Buffer
	if err := judgeUserTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
