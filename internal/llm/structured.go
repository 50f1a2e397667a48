package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Compiled schemas keyed by their marshaled definition, so two schemas
// sharing a name never share a validator.
var (
	schemasMu sync.Mutex
	schemas   = map[string]*jsonschema.Schema{}
)

// schemaInstruction tells a model without native structured output what to
// return.
func schemaInstruction(s *Schema) (string, error) {
	def, err := json.Marshal(s.Definition)
	if err != nil {
		return "", fmt.Errorf("marshal schema %q: %w", s.Name, err)
	}
	label := s.Name
	if s.Description != "" {
		label += ": " + strings.TrimSuffix(s.Description, ".")
	}
	return fmt.Sprintf("Reply with one JSON object (%s) and nothing else. It must validate against this JSON Schema:\n%s", label, def), nil
}

// decodeStructured pulls the JSON object out of a model's reply and checks
// it against s. Markdown fences and text around the object are dropped.
// With a nil schema the reply is returned unchanged.
func decodeStructured(s *Schema, reply string) (json.RawMessage, error) {
	if s == nil {
		return json.RawMessage(reply), nil
	}
	body := extractObject(reply)
	if body == "" {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(reply), Err: errors.New("no JSON object in reply")}
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(body))
	if err != nil {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(reply), Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	compiled, err := compileSchema(s)
	if err != nil {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(reply), Err: err}
	}
	if err := compiled.Validate(doc); err != nil {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(reply), Err: fmt.Errorf("%s: %w", s.Name, err)}
	}

	var out bytes.Buffer
	if err := json.Compact(&out, []byte(body)); err != nil {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(reply), Err: err}
	}
	return out.Bytes(), nil
}

// extractObject returns the span from the first '{' to the last '}'.
func extractObject(reply string) string {
	reply = strings.TrimSpace(reply)
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end < start {
		return ""
	}
	return reply[start : end+1]
}

func compileSchema(s *Schema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", s.Name, err)
	}
	key := string(raw)

	schemasMu.Lock()
	defer schemasMu.Unlock()
	if c, ok := schemas[key]; ok {
		return c, nil
	}

	def, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", s.Name, err)
	}
	url := fmt.Sprintf("https://sapio.local/schemas/%s-%d.json", s.Name, len(schemas))
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", s.Name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", s.Name, err)
	}
	schemas[key] = compiled
	return compiled, nil
}
