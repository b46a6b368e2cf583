// Package collection holds the Postman Collection v2.1 document model emitted
// by the synthesizer, plus the small helpers needed to build and walk it.
package collection

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SchemaV210 identifies the Postman collection format the output targets.
const SchemaV210 = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// Event listeners understood by the runner.
const (
	ListenPrerequest = "prerequest"
	ListenTest       = "test"
)

const scriptType = "text/javascript"

// Collection is a Postman Collection v2.1 document.
type Collection struct {
	Info     Info       `json:"info"`
	Auth     *Auth      `json:"auth,omitempty"`
	Event    []Event    `json:"event,omitempty"`
	Variable []Variable `json:"variable,omitempty"`
	Item     []Item     `json:"item"`
}

// Info contains collection metadata.
type Info struct {
	PostmanID   string `json:"_postman_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Schema      string `json:"schema"`
}

// Auth is a collection or request level authentication block.
type Auth struct {
	Type   string          `json:"type"`
	Bearer []AuthAttribute `json:"bearer,omitempty"`
	Basic  []AuthAttribute `json:"basic,omitempty"`
}

type AuthAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Event binds a script to a listener ("prerequest" or "test").
type Event struct {
	Listen string `json:"listen"`
	Script Script `json:"script"`
}

type Script struct {
	Type string   `json:"type"`
	Exec []string `json:"exec"`
}

// Variable is a collection variable.
type Variable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Item is either a folder (Item set) or a request (Request set).
type Item struct {
	Name    string   `json:"name"`
	Event   []Event  `json:"event,omitempty"`
	Request *Request `json:"request,omitempty"`
	Item    []Item   `json:"item,omitempty"`
}

type Request struct {
	Auth   *Auth    `json:"auth,omitempty"`
	Method string   `json:"method"`
	Header []Header `json:"header"`
	Body   *Body    `json:"body,omitempty"`
	URL    URL      `json:"url"`
}

type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// URL carries the same address three ways: raw, host and path segments.
type URL struct {
	Raw   string       `json:"raw"`
	Host  []string     `json:"host"`
	Path  []string     `json:"path"`
	Query []QueryParam `json:"query,omitempty"`
}

type QueryParam struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

// Body modes.
const (
	ModeRaw      = "raw"
	ModeFormData = "formdata"
)

type Body struct {
	Mode     string       `json:"mode"`
	Raw      string       `json:"raw,omitempty"`
	FormData []FormField  `json:"formdata,omitempty"`
	Options  *BodyOptions `json:"options,omitempty"`
}

type BodyOptions struct {
	Raw RawOptions `json:"raw"`
}

type RawOptions struct {
	Language string `json:"language"`
}

// FormField is one multipart slot; Type is "file" or "text".
type FormField struct {
	Key  string `json:"key"`
	Type string `json:"type"`
}

// NewScript builds a javascript event script.
func NewScript(listen string, lines ...string) Event {
	return Event{Listen: listen, Script: Script{Type: scriptType, Exec: lines}}
}

// VarRef renders a runner variable reference, e.g. {{localUrl}}.
func VarRef(name string) string { return "{{" + name + "}}" }

// NewURL decomposes path against the host variable named key.
func NewURL(key, path string) URL {
	host := VarRef(key)
	segments := []string{}
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return URL{Raw: host + path, Host: []string{host}, Path: segments}
}

// RawJSONBody wraps already serialized JSON text.
func RawJSONBody(raw string) *Body {
	return &Body{
		Mode:    ModeRaw,
		Raw:     raw,
		Options: &BodyOptions{Raw: RawOptions{Language: "json"}},
	}
}

// Child returns the direct child named name.
func (it *Item) Child(name string) *Item {
	for i := range it.Item {
		if it.Item[i].Name == name {
			return &it.Item[i]
		}
	}
	return nil
}

// IsFolder reports whether the item groups other items.
func (it *Item) IsFolder() bool { return it.Request == nil }

// Root returns the environment root named name.
func (c *Collection) Root(name string) *Item {
	for i := range c.Item {
		if c.Item[i].Name == name {
			return &c.Item[i]
		}
	}
	return nil
}

// Find resolves a slash-free name path from the collection roots,
// e.g. Find("local", "pet", "list").
func (c *Collection) Find(names ...string) *Item {
	if len(names) == 0 {
		return nil
	}
	it := c.Root(names[0])
	for _, n := range names[1:] {
		if it == nil {
			return nil
		}
		it = it.Child(n)
	}
	return it
}

// Walk visits every item depth-first in document order. path holds the
// names of the ancestors followed by the item's own name.
func (c *Collection) Walk(fn func(path []string, it *Item)) {
	var walk func(prefix []string, items []Item)
	walk = func(prefix []string, items []Item) {
		for i := range items {
			p := append(append([]string(nil), prefix...), items[i].Name)
			fn(p, &items[i])
			walk(p, items[i].Item)
		}
	}
	walk(nil, c.Item)
}

// Marshal renders the collection as indented JSON without HTML escaping.
func Marshal(c *Collection) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
