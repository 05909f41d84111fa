package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcc4mcc/mcc4mcc/schemas"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats schema validation messages.
var printer = message.NewPrinter(language.English)

var (
	knownSchema   = mustCompileSchema(schemas.KnownSchemaJSON, "known.schema.json")
	learnedSchema = mustCompileSchema(schemas.LearnedSchemaJSON, "learned.schema.json")
	valuesSchema  = mustCompileSchema(schemas.ValuesSchemaJSON, "values.schema.json")
)

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// SchemaError lists the violations found in one artifact.
type SchemaError struct {
	Artifact   string
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s does not match its schema: %s", e.Artifact, strings.Join(e.Violations, "; "))
}

// validate checks data against schema and returns a *SchemaError on mismatch.
func validate(schema *jsonschema.Schema, artifact string, data []byte) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s is not valid JSON: %w", artifact, err)
	}
	err = schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("%s: schema: %w", artifact, err)
	}
	schemaErr := &SchemaError{Artifact: artifact}
	collectViolations(ve, &schemaErr.Violations)
	return schemaErr
}

func collectViolations(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*out = append(*out, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(printer)))
		return
	}
	for _, c := range ve.Causes {
		collectViolations(c, out)
	}
}
