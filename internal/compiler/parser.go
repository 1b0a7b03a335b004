package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aretw0/formflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Parser is responsible for converting raw form documents into a Form.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a JSON or YAML form document.
// YAML is normalized through JSON so both encodings yield the same value
// types (float64 numbers, []any lists, map[string]any objects).
func (p *Parser) Parse(data []byte) (*domain.Form, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty form document")
	}
	if trimmed[0] == '{' {
		return p.ParseJSON(trimmed)
	}
	return p.ParseYAML(trimmed)
}

// ParseJSON decodes a JSON form document.
func (p *Parser) ParseJSON(data []byte) (*domain.Form, error) {
	var form domain.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}
	if err := check(&form); err != nil {
		return nil, err
	}
	return &form, nil
}

// ParseYAML decodes a YAML form document.
func (p *Parser) ParseYAML(data []byte) (*domain.Form, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize form: %w", err)
	}
	return p.ParseJSON(normalized)
}

// ParseMap decodes an already unmarshalled document (e.g. frontmatter).
func (p *Parser) ParseMap(doc map[string]any) (*domain.Form, error) {
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize form: %w", err)
	}
	return p.ParseJSON(normalized)
}

// check enforces the minimum needed to address a form and its steps.
// Graph-level problems are reported by the validator package instead.
func check(form *domain.Form) error {
	if form.ID == "" {
		return fmt.Errorf("form missing ID")
	}
	for i, s := range form.Steps {
		if s.ID == "" {
			return fmt.Errorf("form %s: step %d missing ID", form.ID, i)
		}
	}
	return nil
}
