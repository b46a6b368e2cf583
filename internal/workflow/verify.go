package workflow

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/swagger2postman/internal/collection"
)

var varRefPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_.\-]+)\}\}`)

// ContractError lists every variable-contract violation found by Verify.
type ContractError struct {
	Issues []string
}

func (e *ContractError) Error() string {
	return "workflow contract violated: " + strings.Join(e.Issues, "; ")
}

// Verify checks that every variable read by an emitted script or referenced
// as {{name}} in a request is produced by exactly one kind of writer script,
// or is declared as a collection variable, or is a fixture input. Optional
// reads may have no writer. Unrecognised scripts are reported too.
func Verify(c *collection.Collection) error {
	declared := map[string]bool{}
	for _, v := range c.Variable {
		declared[v.Key] = true
	}
	for _, v := range FixtureInputs {
		declared[v.Name] = true
	}

	writers := map[string]map[Kind]bool{}
	type read struct {
		name     string
		where    string
		optional bool
	}
	var reads []read
	var issues []string

	addScript := func(where string, ev collection.Event, itemName string) {
		s, ok := Identify(ev, itemName)
		if !ok {
			issues = append(issues, fmt.Sprintf("%s: unrecognised %s script", where, ev.Listen))
			return
		}
		for _, w := range s.Writes {
			if writers[w.Name] == nil {
				writers[w.Name] = map[Kind]bool{}
			}
			writers[w.Name][s.Kind] = true
		}
		for _, r := range s.Reads {
			reads = append(reads, read{name: r.Name, where: where})
		}
		for _, r := range s.OptionalReads {
			reads = append(reads, read{name: r.Name, where: where, optional: true})
		}
	}
	addRefs := func(where string, texts ...string) {
		for _, t := range texts {
			for _, m := range varRefPattern.FindAllStringSubmatch(t, -1) {
				reads = append(reads, read{name: m[1], where: where})
			}
		}
	}

	for _, ev := range c.Event {
		addScript("collection", ev, "")
	}
	if c.Auth != nil {
		addRefs("collection auth", authValues(c.Auth)...)
	}
	c.Walk(func(path []string, it *collection.Item) {
		where := strings.Join(path, "/")
		for _, ev := range it.Event {
			addScript(where, ev, it.Name)
		}
		if it.Request != nil {
			addRefs(where, requestTexts(it.Request)...)
		}
	})

	for _, r := range reads {
		n := len(writers[r.name])
		switch {
		case n > 1:
			kinds := make([]string, 0, n)
			for k := range writers[r.name] {
				kinds = append(kinds, string(k))
			}
			sort.Strings(kinds)
			issues = append(issues, fmt.Sprintf("%s: %q has %d writers (%s)", r.where, r.name, n, strings.Join(kinds, ", ")))
		case n == 0 && !declared[r.name] && !r.optional:
			issues = append(issues, fmt.Sprintf("%s: %q is read but never written", r.where, r.name))
		}
	}
	if len(issues) > 0 {
		return &ContractError{Issues: issues}
	}
	return nil
}

func authValues(a *collection.Auth) []string {
	var out []string
	for _, attr := range a.Bearer {
		out = append(out, attr.Value)
	}
	for _, attr := range a.Basic {
		out = append(out, attr.Value)
	}
	return out
}

func requestTexts(r *collection.Request) []string {
	out := []string{r.URL.Raw}
	out = append(out, r.URL.Host...)
	for _, q := range r.URL.Query {
		out = append(out, q.Value)
	}
	for _, h := range r.Header {
		out = append(out, h.Value)
	}
	if r.Body != nil {
		out = append(out, r.Body.Raw)
	}
	if r.Auth != nil {
		out = append(out, authValues(r.Auth)...)
	}
	return out
}
