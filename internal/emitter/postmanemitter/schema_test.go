package postmanemitter

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/swagger2postman/internal/collection"
)

func TestValidate_AcceptsMarshalledCollection(t *testing.T) {
	t.Parallel()
	c := minimalCollection()
	c.Event = []collection.Event{collection.NewScript(collection.ListenPrerequest, "pm.test('ok');")}
	c.Variable = []collection.Variable{{Key: "localUrl", Value: "localhost:8080", Type: "string"}}
	c.Auth = &collection.Auth{Type: "bearer", Bearer: []collection.AuthAttribute{{Key: "token", Value: "{{accessToken}}", Type: "string"}}}
	data, err := collection.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := Validate(data); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate_RejectsMalformed(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"wrong schema":       `{"info":{"name":"x","schema":"v1"},"item":[]}`,
		"missing item":       `{"info":{"name":"x","schema":"` + collection.SchemaV210 + `"}}`,
		"folder and request": `{"info":{"name":"x","schema":"` + collection.SchemaV210 + `"},"item":[{"name":"a","item":[],"request":{"method":"GET","header":[],"url":{"raw":"","host":[],"path":[]}}}]}`,
		"bad listener":       `{"info":{"name":"x","schema":"` + collection.SchemaV210 + `"},"item":[],"event":[{"listen":"onload","script":{"exec":[]}}]}`,
		"not json":           `{`,
	}
	for name, raw := range cases {
		if err := Validate([]byte(raw)); err == nil {
			t.Fatalf("%s: expected a validation error", name)
		}
	}
}

func TestEmit_RefusesInvalidCollection(t *testing.T) {
	t.Parallel()
	c := minimalCollection()
	c.Item[0].Item[0].Request.Method = "FETCH"
	_, err := Emit(context.Background(), c, Options{OutDir: t.TempDir(), DryRun: true})
	if err == nil || !strings.Contains(err.Error(), "violates schema") {
		t.Fatalf("expected a schema violation, got %v", err)
	}
}
