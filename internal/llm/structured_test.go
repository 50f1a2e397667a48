package llm

import (
	"errors"
	"strings"
	"testing"
)

func judgementSchema() *Schema {
	return &Schema{
		Name:        "viva-judgement",
		Description: "Assessment of a spoken explanation",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score":    map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"verdict":  map[string]any{"type": "string", "enum": []any{"correct", "partial", "incorrect"}},
				"feedback": map[string]any{"type": "string"},
				"matched": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
			"required": []any{"score", "feedback"},
		},
	}
}

func TestDecodeStructured_Accepts(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"full", `{"score":0.8,"verdict":"correct","feedback":"Clear base case.","matched":["base case"]}`,
			`{"score":0.8,"verdict":"correct","feedback":"Clear base case.","matched":["base case"]}`},
		{"optional fields omitted", `{"score":0.3,"feedback":"Mention when the recursion stops."}`,
			`{"score":0.3,"feedback":"Mention when the recursion stops."}`},
		{"markdown fence", "```json\n{\"score\": 0.5,\n \"feedback\": \"ok\"}\n```",
			`{"score":0.5,"feedback":"ok"}`},
		{"preamble", `Here is my assessment: {"score":1,"feedback":"Spot on."} Hope that helps.`,
			`{"score":1,"feedback":"Spot on."}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeStructured(judgementSchema(), tt.reply)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("content = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeStructured_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing required": `{"score":0.5}`,
		"wrong type":       `{"score":"high","feedback":"ok"}`,
		"out of range":     `{"score":1.5,"feedback":"ok"}`,
		"bad enum":         `{"score":0.5,"verdict":"maybe","feedback":"ok"}`,
		"bad array items":  `{"score":0.5,"feedback":"ok","matched":[1,2]}`,
		"malformed":        `{not json}`,
		"no object":        `The student explained it well.`,
		"empty":            ``,
	}
	for name, reply := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := decodeStructured(judgementSchema(), reply)
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
			}
			if string(inv.Content) != reply {
				t.Errorf("content = %q, want the raw reply", inv.Content)
			}
		})
	}
}

func TestDecodeStructured_NilSchemaPassesThrough(t *testing.T) {
	got, err := decodeStructured(nil, "What stops the loop?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "What stops the loop?" {
		t.Errorf("content = %s", got)
	}
}

func TestDecodeStructured_SameNameDifferentSchemas(t *testing.T) {
	strict := &Schema{
		Name: "viva-judgement",
		Definition: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{"score": map[string]any{"type": "number"}},
			"required":             []any{"score"},
			"additionalProperties": false,
		},
	}
	if _, err := decodeStructured(strict, `{"score":0.2,"feedback":"x"}`); err == nil {
		t.Fatal("strict schema should reject extra properties")
	}
	if _, err := decodeStructured(judgementSchema(), `{"score":0.2,"feedback":"x"}`); err != nil {
		t.Fatalf("loose schema under the same name: %v", err)
	}
}

func TestSchemaInstruction(t *testing.T) {
	got, err := schemaInstruction(judgementSchema())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"(viva-judgement: Assessment of a spoken explanation)", `"required":["score","feedback"]`} {
		if !strings.Contains(got, want) {
			t.Errorf("instruction missing %q:\n%s", want, got)
		}
	}
}
