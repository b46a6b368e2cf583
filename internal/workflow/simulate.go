package workflow

import (
	"fmt"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// DateLayout is the Go rendering of the dd/MM/yyyy HH:mm:ss format produced
// by StampCurrentDate.
const DateLayout = "02/01/2006 15:04:05"

// Store holds runner variables by scope.
type Store struct {
	vars map[Scope]map[string]any
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{vars: map[Scope]map[string]any{}, now: time.Now}
}

// WithClock fixes the time seen by StampCurrentDate.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Get(v Var) (any, bool) {
	val, ok := s.vars[v.Scope][v.Name]
	return val, ok
}

func (s *Store) Set(v Var, val any) {
	m, ok := s.vars[v.Scope]
	if !ok {
		m = map[string]any{}
		s.vars[v.Scope] = m
	}
	m[v.Name] = val
}

var (
	dataPath        = jp.MustParseString("$.data")
	contentPath     = jp.MustParseString("$.data.content")
	accessTokenPath = jp.MustParseString("$.access_token")
)

func parseResponse(response []byte) (any, error) {
	doc, err := oj.Parse(response)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return doc, nil
}

// first returns the first match of x in doc, or nil.
func first(x jp.Expr, doc any) any {
	if got := x.Get(doc); len(got) > 0 {
		return got[0]
	}
	return nil
}

// itemIDs maps a list of objects to their "id" members. Elements without an
// id contribute nil.
func itemIDs(list []any) []any {
	ids := make([]any, 0, len(list))
	for _, el := range list {
		var id any
		if m, ok := el.(map[string]any); ok {
			id = m["id"]
		}
		ids = append(ids, id)
	}
	return ids
}

func captureIDs(st *Store, response []byte) (Next, error) {
	doc, err := parseResponse(response)
	if err != nil {
		return Next{}, err
	}
	content, ok := first(contentPath, doc).([]any)
	if !ok {
		st.Set(IDs, []any{})
		return Next{}, nil
	}
	st.Set(IDs, itemIDs(content))
	return Next{}, nil
}

func drain(st *Store, requestName string) Next {
	val, _ := st.Get(IDs)
	ids, ok := val.([]any)
	if !ok || len(ids) == 0 {
		return Next{Called: true}
	}
	st.Set(ID, ids[0])
	st.Set(IDs, ids[1:])
	return Next{Called: true, Request: requestName}
}

func captureToken(st *Store, response []byte) (Next, error) {
	doc, err := parseResponse(response)
	if err != nil {
		return Next{}, err
	}
	if tok, ok := first(accessTokenPath, doc).(string); ok && tok != "" {
		st.Set(AccessToken, tok)
	}
	return Next{}, nil
}

func capturePermissions(st *Store, response []byte) (Next, error) {
	doc, err := parseResponse(response)
	if err != nil {
		return Next{}, err
	}
	data, ok := first(dataPath, doc).([]any)
	if !ok {
		return Next{}, nil
	}
	st.Set(Permissions, oj.JSON(itemIDs(data)))
	return Next{}, nil
}

func stampCurrentDate(st *Store, _ []byte) (Next, error) {
	st.Set(CurrentDate, st.now().Format(DateLayout))
	return Next{}, nil
}
