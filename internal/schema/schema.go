// Package schema validates request payloads against embedded JSON Schema
// documents and shapes response payloads.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/TWRT/tasks-api/internal/models"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

const schemaBaseURL = "https://github.com/TWRT/tasks-api/schemas/"

var (
	taskSchema       = mustCompile("task.json")
	bulkCreateSchema = mustCompile("bulk_create.json")
	bulkDeleteSchema = mustCompile("bulk_delete.json")
)

var missingPropertyRe = regexp.MustCompile(`'([^']+)'`)

// ValidationError describes a request payload that failed validation.
// Field is a dotted path such as "tasks.1.title", empty for problems with
// the body as a whole.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func mustCompile(name string) *jsonschema.Schema {
	data, err := schemaFiles.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaBaseURL+name, bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	s, err := compiler.Compile(schemaBaseURL + name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return s
}

// DecodeTask reads a create or update body. Only the exact keys "title"
// and "is_completed" are read; any other key is ignored.
func DecodeTask(r io.Reader) (models.TaskInput, error) {
	doc, err := decode(r, taskSchema)
	if err != nil {
		return models.TaskInput{}, err
	}
	return taskInput(doc), nil
}

// DecodeBulkCreate reads a bulk create body and returns its inputs in
// request order. An empty "tasks" array yields an empty, non-nil slice.
func DecodeBulkCreate(r io.Reader) ([]models.TaskInput, error) {
	doc, err := decode(r, bulkCreateSchema)
	if err != nil {
		return nil, err
	}
	body, _ := doc.(map[string]any)
	items, _ := body["tasks"].([]any)
	inputs := make([]models.TaskInput, len(items))
	for i, item := range items {
		inputs[i] = taskInput(item)
	}
	return inputs, nil
}

// DecodeBulkDelete reads a bulk delete body. Duplicate ids are kept.
func DecodeBulkDelete(r io.Reader) ([]int64, error) {
	doc, err := decode(r, bulkDeleteSchema)
	if err != nil {
		return nil, err
	}
	body, _ := doc.(map[string]any)
	items, _ := body["tasks"].([]any)
	ids := make([]int64, len(items))
	for i, item := range items {
		n, _ := item.(json.Number)
		id, err := n.Int64()
		if err != nil {
			return nil, &ValidationError{
				Field:   joinPath("tasks", strconv.Itoa(i)),
				Message: fmt.Sprintf("%s is not a valid task id", n),
			}
		}
		ids[i] = id
	}
	return ids, nil
}

// taskInput builds a TaskInput from a document that already passed the task
// schema, so both keys have the right type when present.
func taskInput(v any) models.TaskInput {
	m, _ := v.(map[string]any)
	title, _ := m["title"].(string)
	completed, _ := m["is_completed"].(bool)
	return models.TaskInput{Title: title, IsCompleted: completed}
}

// ParseID parses a task id taken from the request path.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: "id", Message: fmt.Sprintf("invalid task id %q", raw)}
	}
	return id, nil
}

// BulkCreateResponse wraps created ids, in insertion order, for the 201 body.
func BulkCreateResponse(ids []int64) models.BulkCreateResponse {
	refs := make([]models.TaskRef, len(ids))
	for i, id := range ids {
		refs[i] = models.TaskRef{Id: id}
	}
	return models.BulkCreateResponse{Tasks: refs}
}

// decode reads one JSON document from r and validates it against s. Numbers
// are kept as json.Number.
func decode(r io.Reader, s *jsonschema.Schema) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &ValidationError{Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)}
		}
		return nil, &ValidationError{Message: "read body: " + err.Error()}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ValidationError{Message: "invalid JSON: " + err.Error()}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ValidationError{Message: "invalid JSON: unexpected data after top-level value"}
	}

	if err := s.Validate(doc); err != nil {
		return nil, toValidationError(err)
	}
	return doc, nil
}

func toValidationError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &ValidationError{Message: err.Error()}
	}

	leaf := firstLeaf(ve)
	field := pointerToPath(leaf.InstanceLocation)
	if strings.HasSuffix(leaf.KeywordLocation, "/required") {
		if m := missingPropertyRe.FindStringSubmatch(leaf.Message); m != nil {
			field = joinPath(field, m[1])
		}
	}
	return &ValidationError{Field: field, Message: leaf.Message}
}

func firstLeaf(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

// pointerToPath turns "/tasks/1/title" into "tasks.1.title".
func pointerToPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return ""
	}
	parts := strings.Split(pointer, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}
