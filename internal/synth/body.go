package synth

import (
	"github.com/mark3labs/swagger2postman/internal/collection"
	"github.com/mark3labs/swagger2postman/internal/spec"
)

// jsonBody synthesizes the pretty-printed example body for a body parameter.
// Array schemas produce two identical rows.
func (s *Synthesizer) jsonBody(op spec.Operation, p spec.Parameter) (string, error) {
	def, err := resolveBody(s.doc, op, p)
	if err != nil {
		return "", err
	}
	row := s.Example(def)
	var v any = row
	if p.Body.Array {
		v = []any{row, row}
	}
	return collection.PrettyJSON(v)
}

// Example maps every field of def, in declaration order, to its placeholder.
func (s *Synthesizer) Example(def spec.Definition) *collection.Object {
	obj := collection.NewObject()
	for _, f := range def.Fields {
		obj.Set(f.Name, s.fieldValue(f))
	}
	return obj
}

func (s *Synthesizer) fieldValue(f spec.Field) any {
	switch {
	case f.Format == "date-time":
		return s.date
	case f.Type == "boolean":
		return true
	case f.Format == "int64":
		return s.defaults.Long
	case f.Format == "int32":
		return s.defaults.Integer
	case f.Type == "array":
		return []any{}
	}
	return typePlaceholder(f.Type)
}

func resolveBody(doc *spec.SourceDocument, op spec.Operation, p spec.Parameter) (spec.Definition, error) {
	if p.Body == nil || p.Body.Ref == "" {
		return spec.Definition{}, &SchemaResolutionError{
			Path: op.Path, Method: string(op.Method),
			Reason: "body parameter " + p.Name + " has no schema $ref",
		}
	}
	def, ok := doc.Definition(p.Body.Ref)
	if !ok {
		return spec.Definition{}, &SchemaResolutionError{
			Path: op.Path, Method: string(op.Method), Schema: p.Body.Ref,
			Reason: "definition not found",
		}
	}
	return def, nil
}
