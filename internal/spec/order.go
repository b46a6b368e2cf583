package spec

import (
    "fmt"
    "sort"
    "strings"

    "gopkg.in/yaml.v3"
)

// KeyOrder records the source order of the mapping keys the synthesizer
// iterates: paths, methods under each path, and properties of each schema
// definition. Decoding into Go maps loses this order, so it is captured from
// the yaml.Node tree of the raw document (JSON input parses the same way).
type KeyOrder struct {
    Paths   []string
    Methods map[string][]string // path -> lower-case methods
    Fields  map[string][]string // definition -> property names
}

func captureKeyOrder(raw []byte) (*KeyOrder, error) {
    var root yaml.Node
    if err := yaml.Unmarshal(raw, &root); err != nil {
        return nil, fmt.Errorf("capture key order: %w", err)
    }
    if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
        return nil, fmt.Errorf("capture key order: empty document")
    }
    doc := root.Content[0]
    ko := &KeyOrder{
        Methods: map[string][]string{},
        Fields:  map[string][]string{},
    }

    if paths := mappingValue(doc, "paths"); paths != nil {
        for _, p := range mappingKeys(paths) {
            ko.Paths = append(ko.Paths, p)
            item := mappingValue(paths, p)
            for _, m := range mappingKeys(item) {
                lm := strings.ToLower(m)
                if isHTTPMethod(lm) {
                    ko.Methods[p] = append(ko.Methods[p], lm)
                }
            }
        }
    }

    defs := mappingValue(doc, "definitions")
    if defs == nil {
        defs = mappingValue(mappingValue(doc, "components"), "schemas")
    }
    for _, name := range mappingKeys(defs) {
        props := mappingValue(mappingValue(defs, name), "properties")
        ko.Fields[name] = mappingKeys(props)
    }
    return ko, nil
}

// orderedKeys returns the keys of set, first in the recorded order, then any
// remaining keys sorted.
func orderedKeys[V any](recorded []string, set map[string]V) []string {
    out := make([]string, 0, len(set))
    seen := make(map[string]struct{}, len(set))
    for _, k := range recorded {
        if _, ok := set[k]; !ok {
            continue
        }
        if _, dup := seen[k]; dup {
            continue
        }
        seen[k] = struct{}{}
        out = append(out, k)
    }
    var rest []string
    for k := range set {
        if _, ok := seen[k]; !ok {
            rest = append(rest, k)
        }
    }
    sort.Strings(rest)
    return append(out, rest...)
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
    if n == nil || n.Kind != yaml.MappingNode {
        return nil
    }
    for i := 0; i+1 < len(n.Content); i += 2 {
        if n.Content[i].Value == key {
            return n.Content[i+1]
        }
    }
    return nil
}

func mappingKeys(n *yaml.Node) []string {
    if n == nil || n.Kind != yaml.MappingNode {
        return nil
    }
    keys := make([]string, 0, len(n.Content)/2)
    for i := 0; i+1 < len(n.Content); i += 2 {
        keys = append(keys, n.Content[i].Value)
    }
    return keys
}

func isHTTPMethod(m string) bool {
    switch HttpMethod(m) {
    case GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS:
        return true
    }
    return false
}
