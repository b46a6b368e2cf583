package postmanemitter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/swagger2postman/internal/collection"
)

func minimalCollection() *collection.Collection {
	return &collection.Collection{
		Info: collection.Info{Name: "Pet Store API [02/01/2024 03:04:05]", Schema: collection.SchemaV210},
		Item: []collection.Item{{
			Name: "local",
			Item: []collection.Item{{
				Name: "list",
				Request: &collection.Request{
					Method: "GET",
					Header: []collection.Header{{Key: "Accept", Value: "application/json"}},
					URL:    collection.NewURL("localUrl", "/pet/list?a=<b>"),
				},
			}},
		}},
	}
}

func TestEmit_DryRun_Plan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	res, err := Emit(context.Background(), minimalCollection(), Options{OutDir: dir, DryRun: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if res.Name != "pet-store-api" {
		t.Fatalf("derived name = %q", res.Name)
	}
	if len(res.Planned) != 1 || res.Planned[0].RelPath != "pet-store-api.postman_collection.json" {
		t.Fatalf("unexpected plan: %+v", res.Planned)
	}
	if res.Planned[0].Size == 0 {
		t.Fatalf("planned size should be the rendered length")
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("expected no files written on dry-run")
	}
}

func TestEmit_WriteAndContents(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested", "out")
	res, err := Emit(context.Background(), minimalCollection(), Options{OutDir: dir, Name: "My Pets"})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "my-pets.postman_collection.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if res.Planned[0].Size != len(data) {
		t.Fatalf("planned size %d != written %d", res.Planned[0].Size, len(data))
	}
	if !strings.Contains(string(data), "/pet/list?a=<b>") {
		t.Fatalf("output should not HTML-escape: %s", data)
	}
	var back collection.Collection
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("output invalid: %v", err)
	}
	if back.Info.Schema != collection.SchemaV210 {
		t.Fatalf("schema = %q", back.Info.Schema)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the collection file, got %d entries", len(entries))
	}
}

func TestEmit_ExistingFileRequiresForce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	target := filepath.Join(dir, "pet-store-api.postman_collection.json")
	if err := os.WriteFile(target, []byte("{}"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}
	if _, err := Emit(context.Background(), minimalCollection(), Options{OutDir: dir}); err == nil {
		t.Fatalf("expected error when the collection file exists without force")
	}
	if _, err := Emit(context.Background(), minimalCollection(), Options{OutDir: dir, Force: true}); err != nil {
		t.Fatalf("force emit: %v", err)
	}
	data, _ := os.ReadFile(target)
	if string(data) == "{}" {
		t.Fatalf("file was not overwritten")
	}
}

func TestEmit_UnrelatedFilesAreFine(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}
	if _, err := Emit(context.Background(), minimalCollection(), Options{OutDir: dir}); err != nil {
		t.Fatalf("emit: %v", err)
	}
}

func TestEmit_Validation(t *testing.T) {
	t.Parallel()
	if _, err := Emit(context.Background(), nil, Options{OutDir: "x"}); err == nil {
		t.Fatalf("expected error for nil collection")
	}
	if _, err := Emit(context.Background(), minimalCollection(), Options{}); err == nil {
		t.Fatalf("expected error for empty OutDir")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Emit(ctx, minimalCollection(), Options{OutDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func TestDeriveName(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Pet Store API [02/01/2024 03:04:05]": "pet-store-api",
		"billing.v2: internal":                "billing-v2-internal",
		"  ":                                  "",
		"[x]":                                 "x",
	}
	for in, want := range cases {
		if got := deriveName(in); got != want {
			t.Fatalf("deriveName(%q) = %q, want %q", in, got, want)
		}
	}
}
