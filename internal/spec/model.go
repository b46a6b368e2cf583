package spec

// Source model consumed by the collection synthesizer. It is built once from a
// loaded Swagger document and treated as read-only afterwards.

type HttpMethod string

const (
    GET     HttpMethod = "get"
    POST    HttpMethod = "post"
    PUT     HttpMethod = "put"
    DELETE  HttpMethod = "delete"
    PATCH   HttpMethod = "patch"
    HEAD    HttpMethod = "head"
    OPTIONS HttpMethod = "options"
)

// Location is where a parameter travels in the request.
type Location string

const (
    InQuery    Location = "query"
    InBody     Location = "body"
    InFormData Location = "formData"
    InPath     Location = "path"
    InHeader   Location = "header"
)

type SourceDocument struct {
    Title       string
    Paths       []PathItem // document order
    Definitions map[string]Definition
}

type PathItem struct {
    Template   string
    Operations []Operation // document order
}

type Operation struct {
    Method     HttpMethod
    Path       string
    Summary    string
    Tags       []string
    Parameters []Parameter
}

type Parameter struct {
    Name   string
    In     Location
    Type   string // effective type; for formData the schema type wins over the parameter type
    Format string
    Body   *BodySchema // only set when In == InBody
}

// BodySchema points a body parameter at a named definition.
type BodySchema struct {
    Ref   string // definition name; empty when the schema carries no $ref
    Array bool   // schema is an array whose items reference Ref
}

type Definition struct {
    Name   string
    Fields []Field // declaration order
}

type Field struct {
    Name   string
    Type   string
    Format string
}

// Definition looks up a schema definition by name.
func (d *SourceDocument) Definition(name string) (Definition, bool) {
    if d == nil || d.Definitions == nil {
        return Definition{}, false
    }
    def, ok := d.Definitions[name]
    return def, ok
}

// Operations flattens the path items in document order.
func (d *SourceDocument) Operations() []Operation {
    if d == nil {
        return nil
    }
    var out []Operation
    for _, p := range d.Paths {
        out = append(out, p.Operations...)
    }
    return out
}

func (op Operation) QueryParams() []Parameter { return op.paramsIn(InQuery) }

func (op Operation) FormParams() []Parameter { return op.paramsIn(InFormData) }

// BodyParam returns the first body parameter, if any.
func (op Operation) BodyParam() (Parameter, bool) {
    for _, p := range op.Parameters {
        if p.In == InBody {
            return p, true
        }
    }
    return Parameter{}, false
}

func (op Operation) paramsIn(loc Location) []Parameter {
    var out []Parameter
    for _, p := range op.Parameters {
        if p.In == loc {
            out = append(out, p)
        }
    }
    return out
}
