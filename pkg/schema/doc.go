// Package schema publishes the JSON Schema of form documents and validates
// authored YAML or JSON documents against it.
//
// The schema is reflected from domain.Form, so it cannot drift from what the
// loaders decode:
//
//	data, _ := os.ReadFile("signup.yaml")
//	if err := schema.ValidateDocument(data); err != nil {
//	    for _, e := range schema.ValidationErrors(err) {
//	        fmt.Println(e)
//	    }
//	}
package schema
