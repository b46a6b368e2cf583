package synth

import (
	"strings"

	"github.com/mark3labs/swagger2postman/internal/collection"
	"github.com/mark3labs/swagger2postman/internal/spec"
	"github.com/mark3labs/swagger2postman/internal/workflow"
)

const listSummary = "list"

// Override replaces the synthesized body of one controller/summary pair with
// a literal template.
type Override struct {
	Controller string
	Summary    string
	Body       string
}

const groupUpdateBody = `{
  "description": "Role for super admin",
  "id": 15,
  "name": "ROLE SUPPER ADMIN",
  "permissions": {{permissions}}
}`

// DefaultOverrides returns the built-in override table.
func DefaultOverrides() []Override {
	return []Override{
		{Controller: "group", Summary: "update", Body: groupUpdateBody},
	}
}

// Target is the request a rule is matched against.
type Target struct {
	Controller string
	Op         spec.Operation
	Item       *collection.Item
}

// Rule attaches scripts to, or rewrites, a request item.
type Rule struct {
	Name  string
	Match func(t Target) bool
	Apply func(t Target)
}

// Weaver applies the first matching rule to each request item.
type Weaver struct {
	rules []Rule
}

// NewWeaver builds the rule table: list capture, then each override, then
// the drain loop for non-GET requests.
func NewWeaver(overrides []Override) *Weaver {
	rules := []Rule{{
		Name:  "capture-ids",
		Match: func(t Target) bool { return t.Op.Summary == listSummary },
		Apply: func(t Target) { t.Item.Event = append(t.Item.Event, workflow.CaptureIDs().Event()) },
	}}
	for _, ov := range overrides {
		rules = append(rules, overrideRule(ov))
	}
	rules = append(rules, Rule{
		Name:  "drain-ids",
		Match: func(t Target) bool { return !strings.EqualFold(string(t.Op.Method), string(spec.GET)) },
		Apply: func(t Target) { t.Item.Event = append(t.Item.Event, workflow.Drain(t.Item.Name).Event()) },
	})
	return &Weaver{rules: rules}
}

// Weave applies the first rule matching t and returns its name, or "" when
// no rule matched.
func (w *Weaver) Weave(t Target) string {
	for _, r := range w.rules {
		if r.Match(t) {
			r.Apply(t)
			return r.Name
		}
	}
	return ""
}

func (w *Weaver) Rules() []Rule { return append([]Rule(nil), w.rules...) }

func overrideRule(ov Override) Rule {
	return Rule{
		Name: "override:" + ov.Controller + "/" + ov.Summary,
		Match: func(t Target) bool {
			return t.Controller == ov.Controller && t.Op.Summary == ov.Summary
		},
		Apply: func(t Target) {
			req := t.Item.Request
			if req == nil {
				return
			}
			headers := req.Header[:0]
			for _, h := range req.Header {
				if !strings.EqualFold(h.Key, "Content-Type") {
					headers = append(headers, h)
				}
			}
			req.Header = append(headers, collection.Header{Key: "Content-Type", Value: contentTypeJSON})
			req.Body = collection.RawJSONBody(ov.Body)
		},
	}
}
