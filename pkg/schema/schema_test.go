package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formflow/pkg/schema"
)

func TestGenerateFormSchema(t *testing.T) {
	data, err := schema.GenerateFormSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, schema.FormSchemaID, doc["$id"])

	defs, ok := doc["$defs"].(map[string]any)
	require.True(t, ok)
	for _, name := range []string{"Form", "Step", "Condition", "BranchRule"} {
		assert.Contains(t, defs, name)
	}

	step := defs["Step"].(map[string]any)
	assert.Equal(t, []any{"id"}, step["required"])
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr []string
	}{
		{
			name: "valid yaml",
			doc: `
id: signup
steps:
  - id: ask-name
    input: {type: text, dataType: name}
    collect: {enabled: true, variableName: name}
    nextStepOverride:
      rules:
        - operator: AND
          conditions: [{variableName: name, operator: equals, value: Bob}]
          targetStepId: bye
  - id: bye
    type: end
`,
		},
		{
			name: "valid json",
			doc:  `{"id": "f", "steps": [{"id": "a", "order": 1}]}`,
		},
		{
			name:    "missing steps",
			doc:     `id: f`,
			wantErr: []string{"document: missing property 'steps'"},
		},
		{
			name: "bad enums and missing step id",
			doc: `
steps:
  - type: question
    input: {type: slider}
  - id: b
    conditionalLogic:
      operator: XOR
      showIf: [{variableName: x, operator: similar}]
`,
			wantErr: []string{"/steps/0", "/steps/0/input/type", "/steps/1/conditionalLogic/operator", "/steps/1/conditionalLogic/showIf/0/operator"},
		},
		{
			name:    "unknown field",
			doc:     `{"steps": [], "colour": "red"}`,
			wantErr: []string{"colour"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.ValidateDocument([]byte(tt.doc))
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errs := schema.ValidationErrors(err)
			require.NotEmpty(t, errs)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestValidateDocument_Syntax(t *testing.T) {
	err := schema.ValidateDocument([]byte("steps: [unclosed"))
	require.Error(t, err)
	assert.Nil(t, schema.ValidationErrors(err))
}
