// Package workflow describes the control scripts attached to emitted requests
// and the runner variables they share.
//
// Every script is a Script value: its javascript text plus the variables it
// reads and writes. The same value carries a Go rendition of the script's
// effect so the sequencing can be exercised without a runner, and Verify
// checks a whole collection for variables read without a single writer.
package workflow

import (
	"slices"
	"strings"

	"github.com/mark3labs/swagger2postman/internal/collection"
)

// Scope is where the runner keeps a variable.
type Scope string

const (
	// ScopeCollection variables persist across requests and runs (pm.collectionVariables).
	ScopeCollection Scope = "collection"
	// ScopeLocal variables live for one run (pm.variables).
	ScopeLocal Scope = "local"
	// ScopeData variables are supplied by the caller, e.g. runner iteration data.
	ScopeData Scope = "data"
)

type Var struct {
	Name  string
	Scope Scope
}

var (
	IDs         = Var{Name: "ids", Scope: ScopeLocal}
	ID          = Var{Name: "id", Scope: ScopeLocal}
	Permissions = Var{Name: "permissions", Scope: ScopeCollection}
	AccessToken = Var{Name: "accessToken", Scope: ScopeCollection}
	CurrentDate = Var{Name: "currentDate", Scope: ScopeCollection}
)

// FixtureInputs are read by the permission fixture body and supplied by the
// caller.
var FixtureInputs = []Var{
	{Name: "action", Scope: ScopeData},
	{Name: "name", Scope: ScopeData},
	{Name: "group", Scope: ScopeData},
	{Name: "permissionCode", Scope: ScopeData},
}

type Kind string

const (
	KindCurrentDate        Kind = "current-date"
	KindNoop               Kind = "noop"
	KindCaptureIDs         Kind = "capture-ids"
	KindDrain              Kind = "drain"
	KindCaptureToken       Kind = "capture-token"
	KindCapturePermissions Kind = "capture-permissions"
)

// Next records a script's call to pm.execution.setNextRequest.
type Next struct {
	Called  bool
	Request string // empty with Called set means the chain stops
}

// Script is one emitted control script and its variable contract.
type Script struct {
	Kind   Kind
	Listen string
	Exec   []string
	Reads  []Var
	// OptionalReads tolerate a missing value.
	OptionalReads []Var
	Writes        []Var
	// Consumes lists variables the script mutates in place while reading them.
	Consumes []Var

	effect func(st *Store, response []byte) (Next, error)
}

// Event renders the script as a collection event.
func (s Script) Event() collection.Event {
	return collection.NewScript(s.Listen, s.Exec...)
}

// Run applies the script's effect to st. response is the raw response body
// for test scripts and ignored by prerequest scripts.
func (s Script) Run(st *Store, response []byte) (Next, error) {
	if s.effect == nil {
		return Next{}, nil
	}
	return s.effect(st, response)
}

// CaptureIDs stores the ids of a paginated list response into IDs.
func CaptureIDs() Script {
	return Script{
		Kind:   KindCaptureIDs,
		Listen: collection.ListenTest,
		Exec: []string{
			"const response = pm.response.json();",
			"if (response.data?.content) {",
			"  const ids = response.data.content.map(item => item.id);",
			"  pm.variables.set('ids', ids);",
			"} else {",
			"  pm.variables.set('ids', []);",
			"}",
		},
		Writes: []Var{IDs},
		effect: captureIDs,
	}
}

// Drain pops the next captured id and re-queues the request named
// requestName until IDs is empty.
func Drain(requestName string) Script {
	return Script{
		Kind:   KindDrain,
		Listen: collection.ListenPrerequest,
		Exec: []string{
			"const ids = pm.variables.get('ids');",
			"if (ids !== null && Array.isArray(ids) && ids.length > 0) {",
			"    pm.variables.set('id', ids.shift());",
			"    pm.execution.setNextRequest('" + jsString(requestName) + "');",
			"} else {",
			"    pm.execution.setNextRequest(null);",
			"}",
		},
		OptionalReads: []Var{IDs},
		Writes:        []Var{ID},
		Consumes:      []Var{IDs},
		effect: func(st *Store, _ []byte) (Next, error) {
			return drain(st, requestName), nil
		},
	}
}

// CaptureToken stores the access_token of a token response into AccessToken.
func CaptureToken() Script {
	return Script{
		Kind:   KindCaptureToken,
		Listen: collection.ListenTest,
		Exec: []string{
			"const body = pm.response.json();",
			"if (body?.access_token) {",
			"  pm.collectionVariables.set('accessToken', body.access_token);",
			"}",
		},
		Writes: []Var{AccessToken},
		effect: captureToken,
	}
}

// CapturePermissions stores the ids of a permission listing, as JSON text,
// into Permissions.
func CapturePermissions() Script {
	return Script{
		Kind:   KindCapturePermissions,
		Listen: collection.ListenTest,
		Exec: []string{
			"const response = pm.response.json();",
			"if (response.data) {",
			"  const ids = response.data.map(item => item.id);",
			"  pm.collectionVariables.set('permissions', JSON.stringify(ids));",
			"}",
		},
		Writes: []Var{Permissions},
		effect: capturePermissions,
	}
}

// StampCurrentDate is the collection-wide prerequest script refreshing
// CurrentDate before every request.
func StampCurrentDate() Script {
	return Script{
		Kind:   KindCurrentDate,
		Listen: collection.ListenPrerequest,
		Exec: []string{
			"function formatDate(date) {",
			"    const day = String(date.getDate()).padStart(2, '0');",
			"    const month = String(date.getMonth() + 1).padStart(2, '0');",
			"    const year = date.getFullYear();",
			"    const hours = String(date.getHours()).padStart(2, '0');",
			"    const minutes = String(date.getMinutes()).padStart(2, '0');",
			"    const seconds = String(date.getSeconds()).padStart(2, '0');",
			"    return `${day}/${month}/${year} ${hours}:${minutes}:${seconds}`;",
			"}",
			"const currentDate = new Date();",
			"const formattedDate = formatDate(currentDate);",
			"pm.collectionVariables.set('currentDate', formattedDate);",
		},
		Writes: []Var{CurrentDate},
		effect: stampCurrentDate,
	}
}

// Noop is the empty collection-level test script.
func Noop() Script {
	return Script{Kind: KindNoop, Listen: collection.ListenTest, Exec: []string{""}}
}

// Identify maps an emitted event back to its Script. itemName is the name of
// the request carrying the event, needed to recognise drain scripts.
func Identify(ev collection.Event, itemName string) (Script, bool) {
	for _, s := range []Script{
		StampCurrentDate(), Noop(), CaptureIDs(), Drain(itemName), CaptureToken(), CapturePermissions(),
	} {
		if s.Listen == ev.Listen && slices.Equal(s.Exec, ev.Script.Exec) {
			return s, true
		}
	}
	return Script{}, false
}

func jsString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`).Replace(s)
}
