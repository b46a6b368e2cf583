package synth

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/mark3labs/swagger2postman/internal/collection"
	"github.com/mark3labs/swagger2postman/internal/spec"
)

const (
	contentTypeJSON      = "application/json"
	contentTypeMultipart = "multipart/form-data"

	sortExpression = "createdDate,desc"
)

// Query parameters describing pagination internals are never emitted.
var excludedQuery = map[string]bool{
	"offset":        true,
	"paged":         true,
	"sort.unsorted": true,
	"unpaged":       true,
}

var queryRenames = map[string]string{
	"pageNumber":  "page",
	"pageSize":    "size",
	"sort.sorted": "sort",
}

// Synthesizer turns one operation into a request.
type Synthesizer struct {
	doc      *spec.SourceDocument
	defaults Defaults
	date     string
	policy   AmbiguityPolicy
	log      *slog.Logger
}

// NewSynthesizer resolves body schemas against doc. date is the formatted
// generation time used for date-time placeholders.
func NewSynthesizer(doc *spec.SourceDocument, date string, opts ...Option) *Synthesizer {
	o := newOptions(opts...)
	return &Synthesizer{doc: doc, defaults: o.Defaults, date: date, policy: o.Ambiguity, log: o.Logger}
}

// Request builds the request for op. path must already have its placeholders
// substituted; urlKey names the base URL variable.
func (s *Synthesizer) Request(op spec.Operation, method, path, urlKey string) (*collection.Request, error) {
	req := &collection.Request{
		Method: strings.ToUpper(method),
		Header: []collection.Header{{Key: "Accept", Value: contentTypeJSON}},
		URL:    collection.NewURL(urlKey, path),
	}

	for _, p := range op.QueryParams() {
		if excludedQuery[p.Name] {
			continue
		}
		key := p.Name
		if renamed, ok := queryRenames[p.Name]; ok {
			key = renamed
		}
		req.URL.Query = append(req.URL.Query, collection.QueryParam{Key: key, Value: s.queryValue(p), Disabled: true})
	}

	body, hasBody := op.BodyParam()
	form := op.FormParams()
	if hasBody && len(form) > 0 {
		if s.policy != PreferFormData {
			return nil, ambiguous(op, body, form)
		}
		s.log.Warn("operation declares body and form-data parameters, using form-data",
			"method", strings.ToUpper(string(op.Method)), "path", op.Path)
	}

	if hasBody {
		raw, err := s.jsonBody(op, body)
		if err != nil {
			return nil, err
		}
		req.Header = append(req.Header, collection.Header{Key: "Content-Type", Value: contentTypeJSON})
		req.Body = collection.RawJSONBody(raw)
	}
	if len(form) > 0 {
		req.Header = append(req.Header, collection.Header{Key: "Content-Type", Value: contentTypeMultipart})
		req.Body = formBody(form)
	}
	return req, nil
}

func (s *Synthesizer) queryValue(p spec.Parameter) string {
	switch {
	case p.Name == "sort.sorted":
		return sortExpression
	case p.Name == "pageSize":
		return strconv.Itoa(s.defaults.PageSize)
	case p.Format == "int64":
		return strconv.FormatInt(s.defaults.Long, 10)
	case p.Format == "int32":
		return strconv.FormatInt(int64(s.defaults.Integer), 10)
	case p.Format == "date-time":
		return s.date
	}
	return typePlaceholder(p.Type)
}

func formBody(params []spec.Parameter) *collection.Body {
	fields := make([]collection.FormField, 0, len(params))
	for _, p := range params {
		typ := "text"
		if p.Type == "file" {
			typ = "file"
		}
		fields = append(fields, collection.FormField{Key: p.Name, Type: typ})
	}
	return &collection.Body{
		Mode:     collection.ModeFormData,
		FormData: fields,
		Options:  &collection.BodyOptions{Raw: collection.RawOptions{Language: "json"}},
	}
}

// typePlaceholder is the value written for a parameter or field whose type
// has no specific default. Untyped values read as "string".
func typePlaceholder(typ string) string {
	if typ == "" {
		return "string"
	}
	return typ
}

func ambiguous(op spec.Operation, body spec.Parameter, form []spec.Parameter) error {
	names := make([]string, 0, len(form))
	for _, p := range form {
		names = append(names, p.Name)
	}
	return &AmbiguousParametersError{Path: op.Path, Method: string(op.Method), Body: body.Name, Form: names}
}
