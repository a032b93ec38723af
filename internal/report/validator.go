package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ganesh1082/query-to-pdf-sub000/models"
)

//go:embed blueprint_schema.json
var blueprintSchemaJSON string

var (
	compileOnce     sync.Once
	blueprintSchema *jsonschema.Schema
	compileErr      error
)

// BlueprintSchema returns the compiled JSON Schema for report blueprints.
func BlueprintSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("blueprint_schema.json", strings.NewReader(blueprintSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("blueprint_schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile blueprint schema: %w", err)
			return
		}
		blueprintSchema = schema
	})
	return blueprintSchema, compileErr
}

// ValidationError reports why a candidate blueprint was rejected. Callers
// treat it as a signal to fall back, never as a fatal error.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("blueprint validation failed: %s", e.Reason)
}

// SectionCount derives the section target from the requested page count,
// assuming roughly one and a half pages per section, clamped to a readable
// range.
func SectionCount(pageCount int) int {
	n := int(float64(pageCount) / 1.5)
	if n < 8 {
		return 8
	}
	if n > 12 {
		return 12
	}
	return n
}

// ValidateBlueprint checks a recovered object against the blueprint schema
// plus the structural minimums the schema cannot express, and decodes it
// into a typed blueprint on success.
func ValidateBlueprint(obj map[string]interface{}, minSections, minSectionChars int) (*models.ReportBlueprint, error) {
	schema, err := BlueprintSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(map[string]interface{}(obj)); err != nil {
		return nil, ValidationError{Reason: err.Error()}
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, ValidationError{Reason: err.Error()}
	}
	var bp models.ReportBlueprint
	if err := json.Unmarshal(raw, &bp); err != nil {
		return nil, ValidationError{Reason: err.Error()}
	}

	if minSections < 1 {
		minSections = 1
	}
	if len(bp.Sections) < minSections {
		return nil, ValidationError{Reason: fmt.Sprintf("%d sections, need at least %d", len(bp.Sections), minSections)}
	}
	for i, s := range bp.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return nil, ValidationError{Reason: fmt.Sprintf("section %d has an empty title", i)}
		}
		if len(s.Content) < minSectionChars {
			return nil, ValidationError{Reason: fmt.Sprintf("section %q content is %d chars, need at least %d", s.Title, len(s.Content), minSectionChars)}
		}
	}
	return &bp, nil
}
