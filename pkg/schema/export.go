package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/aretw0/formflow/pkg/domain"
)

// FormSchemaID identifies the generated schema.
const FormSchemaID = "https://github.com/aretw0/formflow/schemas/form-v1.json"

// Reflect builds the schema of a form document from domain.Form.
// Only fields tagged jsonschema:"required" are required.
func Reflect() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&domain.Form{})
	s.ID = FormSchemaID
	s.Title = "formflow form"
	s.Description = "A chat-style branching form: ordered steps, conditions and completion actions"
	return s
}

// GenerateFormSchema produces the indented JSON Schema document.
func GenerateFormSchema() ([]byte, error) {
	data, err := json.MarshalIndent(Reflect(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
