// Package synth builds a Postman collection from a SourceDocument.
//
// Build runs the whole pass: it checks the document, lays out the collection
// scaffold, walks every operation into its controller folder under each
// configured environment and weaves the workflow scripts. It either returns a
// complete collection or an error naming the offending operation.
package synth

import (
	"fmt"

	"github.com/mark3labs/swagger2postman/internal/collection"
	"github.com/mark3labs/swagger2postman/internal/spec"
	"github.com/mark3labs/swagger2postman/internal/workflow"
)

// Build synthesizes the collection for doc. The clock is read once.
func Build(doc *spec.SourceDocument, env EnvironmentConfig, opts ...Option) (*collection.Collection, error) {
	o := newOptions(opts...)
	if err := env.validate(); err != nil {
		return nil, err
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &ConfigError{Field: "document", Message: "no source document"}
	}
	if err := Validate(doc, o.Ambiguity); err != nil {
		return nil, err
	}

	now := o.Clock()
	c := NewScaffold(env, now)
	Prune(c, env)

	w := &walker{
		doc:    doc,
		synth:  NewSynthesizer(doc, FormatDate(now), WithDefaults(o.Defaults), WithAmbiguityPolicy(o.Ambiguity), WithLogger(o.Logger)),
		weaver: NewWeaver(o.Overrides),
		long:   o.Defaults.Long,
		log:    o.Logger,
	}
	for i := range c.Item {
		root := &c.Item[i]
		if err := w.populate(root, urlKeyFor(root.Name)); err != nil {
			return nil, err
		}
	}

	if err := workflow.Verify(c); err != nil {
		return nil, fmt.Errorf("emitted scripts are inconsistent: %w", err)
	}
	o.Logger.Info("collection synthesized",
		"name", c.Info.Name, "environments", len(c.Item), "operations", len(doc.Operations()))
	return c, nil
}

func urlKeyFor(root string) string {
	if root == RemoteRoot {
		return RemoteURLKey
	}
	return LocalURLKey
}

// Validate checks every operation of doc up front: each must have a tag,
// each body parameter must reference an existing definition, and under
// RejectAmbiguous no operation may mix body and form-data parameters. The
// first failure in document order is returned.
func Validate(doc *spec.SourceDocument, policy AmbiguityPolicy) error {
	for _, op := range doc.Operations() {
		if _, ok := ControllerName(op); !ok {
			return &SchemaResolutionError{Path: op.Path, Method: string(op.Method), Reason: "operation has no tags"}
		}
		body, hasBody := op.BodyParam()
		form := op.FormParams()
		if hasBody && len(form) > 0 && policy != PreferFormData {
			return ambiguous(op, body, form)
		}
		if hasBody {
			if _, err := resolveBody(doc, op, body); err != nil {
				return err
			}
		}
	}
	return nil
}
