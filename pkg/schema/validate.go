package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var compiled = sync.OnceValues(compile)

func compile() (*sjsonschema.Schema, error) {
	raw, err := GenerateFormSchema()
	if err != nil {
		return nil, err
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource(FormSchemaID, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile(FormSchemaID)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return sch, nil
}

// ValidateDocument checks a YAML or JSON form document against the form
// schema. Schema violations are returned as an *AggregateError of
// *ValidationError; syntax errors are returned as is.
func ValidateDocument(data []byte) error {
	sch, err := compiled()
	if err != nil {
		return err
	}

	// YAML is a superset of JSON, so one decoder covers both formats.
	var parsed any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	asJSON, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("document is not JSON-compatible: %w", err)
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return fmt.Errorf("failed to re-read document: %w", err)
	}

	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *sjsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	printer := message.NewPrinter(language.English)
	aggr := &AggregateError{}
	for _, cause := range flatten(ve) {
		path := ""
		if len(cause.InstanceLocation) > 0 {
			path = "/" + strings.Join(cause.InstanceLocation, "/")
		}
		aggr.Errors = append(aggr.Errors, &ValidationError{Path: path, Reason: cause.ErrorKind.LocalizedString(printer)})
	}
	return aggr
}

// flatten recursively collects all leaf validation errors.
func flatten(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flatten(cause)...)
	}
	return flat
}
