package validation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed record.schema.json
var recordSchemaJSON string

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// recordSchema is the compiled JSON Schema for one dataset line.
var recordSchema *jsonschema.Schema

func init() {
	recordSchema = mustCompileSchema(recordSchemaJSON, "record.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// RecordSchema returns the raw JSON Schema a dataset line must satisfy.
func RecordSchema() string {
	return recordSchemaJSON
}

// RecordError describes why a decoded record was rejected.
type RecordError struct {
	// MessageIndex is the offending message, or -1 when the problem is
	// with the record as a whole.
	MessageIndex int
	Reason       string
}

func (e *RecordError) Error() string {
	if e.MessageIndex >= 0 {
		return fmt.Sprintf("message %d: %s", e.MessageIndex, e.Reason)
	}
	return e.Reason
}

// At renders the error for the given 1-based input line.
func (e *RecordError) At(line int) string {
	if e.MessageIndex >= 0 {
		return fmt.Sprintf("Line %d, message %d: %s", line, e.MessageIndex, e.Reason)
	}
	return fmt.Sprintf("Line %d: %s", line, e.Reason)
}

// ValidateRecord checks a JSON-decoded record against the record schema.
// A non-nil result is always a *RecordError whose reason names the first
// problem found, checking the record, then each message in order, then
// the presence of user and assistant turns.
func ValidateRecord(v any) error {
	errs := validateAgainstSchema(recordSchema, v)
	if len(errs) == 0 {
		return nil
	}
	if re := diagnose(v); re != nil {
		return re
	}
	return &RecordError{MessageIndex: -1, Reason: "schema: " + errs[0]}
}

// ValidateRecordBytes decodes one JSON line and validates it, returning every
// schema violation rather than only the first.
func ValidateRecordBytes(data []byte) []string {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("JSON parse error: %v", err)}
	}
	return validateAgainstSchema(recordSchema, doc)
}

func diagnose(v any) *RecordError {
	obj, ok := v.(map[string]any)
	if !ok {
		return &RecordError{MessageIndex: -1, Reason: "must be a JSON object"}
	}
	msgs, ok := obj["messages"].([]any)
	if !ok {
		return &RecordError{MessageIndex: -1, Reason: "missing or invalid 'messages' array"}
	}
	if len(msgs) < 2 {
		return &RecordError{MessageIndex: -1, Reason: fmt.Sprintf("need at least 2 messages (got %d)", len(msgs))}
	}

	hasUser, hasAssistant := false, false
	for i, raw := range msgs {
		m, ok := raw.(map[string]any)
		if !ok {
			return &RecordError{MessageIndex: i, Reason: "message must be an object"}
		}
		role, _ := m["role"].(string)
		switch role {
		case "user":
			hasUser = true
		case "assistant":
			hasAssistant = true
		case "system":
		default:
			return &RecordError{MessageIndex: i, Reason: "invalid role: " + renderValue(m["role"])}
		}
		if _, ok := m["content"].(string); !ok {
			return &RecordError{MessageIndex: i, Reason: "content must be a String"}
		}
	}
	if !hasUser {
		return &RecordError{MessageIndex: -1, Reason: "must have at least one user message"}
	}
	if !hasAssistant {
		return &RecordError{MessageIndex: -1, Reason: "must have at least one assistant message"}
	}
	return nil
}

func renderValue(v any) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
