package spec

import (
    "context"
    "fmt"
    "regexp"
    "strings"

    "github.com/bmatcuk/doublestar/v4"
    openapi2 "github.com/getkin/kin-openapi/openapi2"
    "github.com/getkin/kin-openapi/openapi3"
)

// BuildOption configures how the SourceDocument is built from a loaded document.
type BuildOption func(*buildConfig)

type buildConfig struct {
    includeTags map[string]struct{}
    excludeTags map[string]struct{}
    methods     map[HttpMethod]struct{}
    pathRes     []*regexp.Regexp
    pathGlobs   []string
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
    return func(c *buildConfig) {
        if len(tags) == 0 {
            return
        }
        if c.includeTags == nil {
            c.includeTags = make(map[string]struct{}, len(tags))
        }
        for _, t := range tags {
            t = strings.TrimSpace(t)
            if t == "" {
                continue
            }
            c.includeTags[t] = struct{}{}
        }
    }
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
    return func(c *buildConfig) {
        if len(tags) == 0 {
            return
        }
        if c.excludeTags == nil {
            c.excludeTags = make(map[string]struct{}, len(tags))
        }
        for _, t := range tags {
            t = strings.TrimSpace(t)
            if t == "" {
                continue
            }
            c.excludeTags[t] = struct{}{}
        }
    }
}

// WithMethods keeps only operations using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) BuildOption {
    return func(c *buildConfig) {
        if len(methods) == 0 {
            return
        }
        if c.methods == nil {
            c.methods = make(map[HttpMethod]struct{}, len(methods))
        }
        for _, m := range methods {
            c.methods[m] = struct{}{}
        }
    }
}

// WithPathPatterns keeps only operations whose path matches at least one of the
// provided regular expressions. Invalid patterns never match.
func WithPathPatterns(patterns []string) BuildOption {
    return func(c *buildConfig) {
        for _, p := range patterns {
            p = strings.TrimSpace(p)
            if p == "" {
                continue
            }
            re, err := regexp.Compile(p)
            if err != nil {
                re = regexp.MustCompile("a^$")
            }
            c.pathRes = append(c.pathRes, re)
        }
    }
}

// WithPathGlobs keeps only operations whose path template matches at least one
// of the provided globs, e.g. "/pet/**" or "/store/*/items". Braces in a glob
// are alternations, so templated segments such as "{id}" need "*". Malformed
// globs never match.
func WithPathGlobs(globs []string) BuildOption {
    return func(c *buildConfig) {
        for _, g := range globs {
            if g = strings.TrimSpace(g); g != "" {
                c.pathGlobs = append(c.pathGlobs, g)
            }
        }
    }
}

// BuildSourceDocument shapes a loaded document into the SourceDocument model.
// Paths, methods and definition fields keep their source order. It does not
// check references or tags; that happens when the collection is synthesized.
func BuildSourceDocument(ctx context.Context, doc *Document, opts ...BuildOption) (*SourceDocument, error) {
    _ = ctx
    if doc == nil || doc.Swagger == nil {
        return nil, fmt.Errorf("nil document")
    }
    cfg := &buildConfig{}
    for _, opt := range opts {
        opt(cfg)
    }
    order := doc.Order
    if order == nil {
        order = &KeyOrder{}
    }
    sw := doc.Swagger

    sd := &SourceDocument{
        Title:       safeStr(sw.Info.Title),
        Definitions: make(map[string]Definition, len(sw.Definitions)),
    }

    for _, name := range orderedKeys(nil, sw.Definitions) {
        sd.Definitions[name] = toDefinition(name, sw.Definitions[name], order.Fields[name])
    }

    for _, p := range orderedKeys(order.Paths, sw.Paths) {
        item := sw.Paths[p]
        if item == nil {
            continue
        }
        if len(cfg.pathRes) > 0 && !matchesAny(cfg.pathRes, p) {
            continue
        }
        if len(cfg.pathGlobs) > 0 && !matchesGlob(cfg.pathGlobs, p) {
            continue
        }
        pi := PathItem{Template: p}
        for _, m := range methodOrder(order.Methods[p], item) {
            op := operationFor(item, m)
            if op == nil {
                continue
            }
            if len(cfg.methods) > 0 {
                if _, ok := cfg.methods[m]; !ok {
                    continue
                }
            }
            tags := make([]string, 0, len(op.Tags))
            for _, t := range op.Tags {
                if t = strings.TrimSpace(t); t != "" {
                    tags = append(tags, t)
                }
            }
            if !allowByTags(tags, cfg) {
                continue
            }
            pi.Operations = append(pi.Operations, Operation{
                Method:     m,
                Path:       p,
                Summary:    safeStr(op.Summary),
                Tags:       tags,
                Parameters: mergeParameters(sw, item.Parameters, op.Parameters),
            })
        }
        if len(pi.Operations) > 0 {
            sd.Paths = append(sd.Paths, pi)
        }
    }
    return sd, nil
}

func matchesAny(res []*regexp.Regexp, p string) bool {
    for _, re := range res {
        if re.MatchString(p) {
            return true
        }
    }
    return false
}

func matchesGlob(globs []string, p string) bool {
    for _, g := range globs {
        if ok, err := doublestar.Match(g, p); err == nil && ok {
            return true
        }
    }
    return false
}

// methodOrder yields the recorded method order followed by any declared
// method the order capture missed.
func methodOrder(recorded []string, item *openapi2.PathItem) []HttpMethod {
    out := make([]HttpMethod, 0, len(recorded))
    seen := map[HttpMethod]struct{}{}
    for _, m := range recorded {
        hm := HttpMethod(strings.ToLower(m))
        if _, dup := seen[hm]; dup {
            continue
        }
        seen[hm] = struct{}{}
        out = append(out, hm)
    }
    for _, hm := range []HttpMethod{GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS} {
        if _, ok := seen[hm]; ok {
            continue
        }
        if operationFor(item, hm) != nil {
            out = append(out, hm)
        }
    }
    return out
}

func operationFor(item *openapi2.PathItem, m HttpMethod) *openapi2.Operation {
    switch m {
    case GET:
        return item.Get
    case POST:
        return item.Post
    case PUT:
        return item.Put
    case DELETE:
        return item.Delete
    case PATCH:
        return item.Patch
    case HEAD:
        return item.Head
    case OPTIONS:
        return item.Options
    }
    return nil
}

// mergeParameters keeps operation-level parameters in declaration order and
// appends path-level parameters the operation does not override.
func mergeParameters(sw *openapi2.T, pathLevel, opLevel openapi2.Parameters) []Parameter {
    out := make([]Parameter, 0, len(opLevel)+len(pathLevel))
    seen := map[string]struct{}{}
    for _, p := range opLevel {
        pm, ok := toParameter(sw, p)
        if !ok {
            continue
        }
        seen[paramKey(string(pm.In), pm.Name)] = struct{}{}
        out = append(out, pm)
    }
    for _, p := range pathLevel {
        pm, ok := toParameter(sw, p)
        if !ok {
            continue
        }
        if _, dup := seen[paramKey(string(pm.In), pm.Name)]; dup {
            continue
        }
        out = append(out, pm)
    }
    return out
}

func toParameter(sw *openapi2.T, p *openapi2.Parameter) (Parameter, bool) {
    if p == nil {
        return Parameter{}, false
    }
    if p.Ref != "" {
        shared, ok := sw.Parameters[refName(p.Ref)]
        if !ok || shared == nil {
            return Parameter{}, false
        }
        p = shared
    }
    pm := Parameter{
        Name:   safeStr(p.Name),
        In:     Location(safeStr(p.In)),
        Type:   safeStr(p.Type),
        Format: safeStr(p.Format),
    }
    switch pm.In {
    case InBody:
        pm.Body = toBodySchema(p.Schema)
        if p.Schema != nil && p.Schema.Value != nil {
            pm.Type = safeStr(p.Schema.Value.Type)
        }
    case InFormData:
        if p.Schema != nil && p.Schema.Value != nil && p.Schema.Value.Type != "" {
            pm.Type = safeStr(p.Schema.Value.Type)
        }
    }
    return pm, true
}

func toBodySchema(ref *openapi3.SchemaRef) *BodySchema {
    bs := &BodySchema{}
    if ref == nil {
        return bs
    }
    if ref.Ref != "" {
        bs.Ref = refName(ref.Ref)
        return bs
    }
    if ref.Value != nil && ref.Value.Type == "array" {
        bs.Array = true
        if ref.Value.Items != nil {
            bs.Ref = refName(ref.Value.Items.Ref)
        }
    }
    return bs
}

func toDefinition(name string, ref *openapi3.SchemaRef, recorded []string) Definition {
    def := Definition{Name: name}
    if ref == nil || ref.Value == nil {
        return def
    }
    props := ref.Value.Properties
    for _, field := range orderedKeys(recorded, props) {
        f := Field{Name: field}
        if prop := props[field]; prop != nil {
            switch {
            case prop.Value != nil:
                f.Type = safeStr(prop.Value.Type)
                f.Format = safeStr(prop.Value.Format)
            case prop.Ref != "":
                f.Type = "object"
            }
        }
        def.Fields = append(def.Fields, f)
    }
    return def
}

// refName returns the last segment of a JSON reference such as
// "#/definitions/Pet".
func refName(ref string) string {
    ref = strings.TrimSpace(ref)
    if ref == "" {
        return ""
    }
    return ref[strings.LastIndex(ref, "/")+1:]
}

func allowByTags(tags []string, cfg *buildConfig) bool {
    if len(cfg.includeTags) > 0 {
        ok := false
        for _, t := range tags {
            if _, yes := cfg.includeTags[t]; yes {
                ok = true
                break
            }
        }
        if !ok {
            return false
        }
    }
    for _, t := range tags {
        if _, blocked := cfg.excludeTags[t]; blocked {
            return false
        }
    }
    return true
}

func paramKey(in, name string) string { return in + ":" + name }

func safeStr(s string) string { return strings.TrimSpace(s) }
