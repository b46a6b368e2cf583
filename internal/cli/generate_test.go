package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// captureGenerate runs the CLI with args and returns the resolved config
// instead of running the pipeline. Tests using it swap a package variable and
// must not run in parallel.
func captureGenerate(t *testing.T, args ...string) (*GenerateConfig, error) {
	t.Helper()
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root.SetArgs(args)
	err := root.Execute()
	return captured, err
}

func TestGenerateConfigFromFlags(t *testing.T) {
	captured, err := captureGenerate(t,
		"--verbose",
		"--log-format", "JSON",
		"generate",
		"--input", "spec.yaml",
		"--out", "./build",
		"--collection-name", "Pets",
		"--local-url", "8080",
		"--remote-url", "https://api.example.com",
		"--default-long", "42",
		"--default-integer", "7",
		"--default-page-size", "50",
		"--include-tags", "foo,bar",
		"--exclude-tags", "baz",
		"--methods", "GET,post",
		"--path-patterns", "^/v1/",
		"--paths", "/v1/**",
		"--ambiguity", "prefer-form",
		"--dry-run",
		"--force",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured == nil {
		t.Fatalf("expected config to be captured")
	}

	if captured.Input != "spec.yaml" {
		t.Errorf("input mismatch: got %q", captured.Input)
	}
	if captured.Out != "./build" {
		t.Errorf("out mismatch: got %q", captured.Out)
	}
	if captured.CollectionName != "Pets" {
		t.Errorf("collection name mismatch: got %q", captured.CollectionName)
	}
	if captured.LocalURL != "8080" {
		t.Errorf("local url mismatch: got %q", captured.LocalURL)
	}
	if captured.RemoteURL != "api.example.com" {
		t.Errorf("remote url should drop the scheme: got %q", captured.RemoteURL)
	}
	if captured.DefaultLong != 42 || captured.DefaultInteger != 7 || captured.DefaultPageSize != 50 {
		t.Errorf("defaults mismatch: %d/%d/%d", captured.DefaultLong, captured.DefaultInteger, captured.DefaultPageSize)
	}
	if want := []string{"foo", "bar"}; !equalStringSlices(captured.IncludeTags, want) {
		t.Errorf("include tags mismatch: got %v", captured.IncludeTags)
	}
	if want := []string{"baz"}; !equalStringSlices(captured.ExcludeTags, want) {
		t.Errorf("exclude tags mismatch: got %v", captured.ExcludeTags)
	}
	if want := []string{"get", "post"}; !equalStringSlices(captured.Methods, want) {
		t.Errorf("methods mismatch: got %v", captured.Methods)
	}
	if want := []string{"^/v1/"}; !equalStringSlices(captured.PathPatterns, want) {
		t.Errorf("path patterns mismatch: got %v", captured.PathPatterns)
	}
	if want := []string{"/v1/**"}; !equalStringSlices(captured.PathGlobs, want) {
		t.Errorf("path globs mismatch: got %v", captured.PathGlobs)
	}
	if captured.Ambiguity != "prefer-form" {
		t.Errorf("ambiguity mismatch: got %q", captured.Ambiguity)
	}
	if captured.LogFormat != "json" {
		t.Errorf("log format mismatch: got %q", captured.LogFormat)
	}
	if !captured.DryRun || !captured.Force || !captured.Verbose {
		t.Errorf("expected dry-run, force and verbose true: %+v", captured)
	}
}

func TestGenerateConfigDefaults(t *testing.T) {
	captured, err := captureGenerate(t, "generate", "--input", "spec.yaml", "--local-url", "8080")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if captured.Out != "." {
		t.Errorf("out default: got %q", captured.Out)
	}
	if captured.DefaultLong != 1 || captured.DefaultInteger != 1 || captured.DefaultPageSize != 20 {
		t.Errorf("placeholder defaults: %d/%d/%d", captured.DefaultLong, captured.DefaultInteger, captured.DefaultPageSize)
	}
	if captured.Ambiguity != "reject" {
		t.Errorf("ambiguity default: got %q", captured.Ambiguity)
	}
	if captured.RemoteURL != "" {
		t.Errorf("remote url should stay unset: got %q", captured.RemoteURL)
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := strings.TrimSpace(`input: config-spec.yaml
out: from-config
collection_name: Config Pets
localUrl: 8080
remote-url: api.example.com
defaultLong: 5
defaultPageSize: "30"
includeTags:
  - cfgFoo
excludeTags: cfgBar
methods: get
dryRun: true
force: false
verbose: true
`) + "\n"
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	captured, err := captureGenerate(t,
		"--config", configPath,
		"generate",
		"--input", "flag-spec.yaml",
		"--include-tags", "flagTag",
		"--default-long", "9",
		"--dry-run=false",
		"--force",
	)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured.Input != "flag-spec.yaml" {
		t.Errorf("input: want %q got %q", "flag-spec.yaml", captured.Input)
	}
	if captured.Out != "from-config" {
		t.Errorf("out: want from-config got %q", captured.Out)
	}
	if captured.CollectionName != "Config Pets" {
		t.Errorf("collection name: got %q", captured.CollectionName)
	}
	if captured.LocalURL != "8080" {
		t.Errorf("an integer port in the config file should read as text: got %q", captured.LocalURL)
	}
	if captured.RemoteURL != "api.example.com" {
		t.Errorf("remote url: got %q", captured.RemoteURL)
	}
	if captured.DefaultLong != 9 {
		t.Errorf("default long: flag should win, got %d", captured.DefaultLong)
	}
	if captured.DefaultPageSize != 30 {
		t.Errorf("default page size from config: got %d", captured.DefaultPageSize)
	}
	if want := []string{"flagTag"}; !equalStringSlices(captured.IncludeTags, want) {
		t.Errorf("include tags: want %v got %v", want, captured.IncludeTags)
	}
	if want := []string{"cfgBar"}; !equalStringSlices(captured.ExcludeTags, want) {
		t.Errorf("exclude tags: want %v got %v", want, captured.ExcludeTags)
	}
	if want := []string{"get"}; !equalStringSlices(captured.Methods, want) {
		t.Errorf("methods: want %v got %v", want, captured.Methods)
	}
	if captured.DryRun {
		t.Errorf("expected dry-run false after flag override")
	}
	if !captured.Force {
		t.Errorf("expected force true after flag override")
	}
	if !captured.Verbose {
		t.Errorf("expected verbose true from config file")
	}
	if captured.ConfigPath != configPath {
		t.Errorf("config path mismatch: got %q", captured.ConfigPath)
	}
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("lang: go\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := captureGenerate(t, "--config", configPath, "generate", "--input", "spec.yaml", "--local-url", "8080")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestGenerateConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", []string{"generate", "--local-url", "8080"}, "--input is required"},
		{"no environment", []string{"generate", "--input", "s.yaml"}, "--local-url or --remote-url"},
		{"bad page size", []string{"generate", "--input", "s.yaml", "--local-url", "1", "--default-page-size", "0"}, "--default-page-size"},
		{"bad ambiguity", []string{"generate", "--input", "s.yaml", "--local-url", "1", "--ambiguity", "merge"}, "--ambiguity"},
		{"bad log format", []string{"--log-format", "xml", "generate", "--input", "s.yaml", "--local-url", "1"}, "--log-format"},
		{"bad method", []string{"generate", "--input", "s.yaml", "--local-url", "1", "--methods", "fetch"}, "unsupported method"},
		{"bad path pattern", []string{"generate", "--input", "s.yaml", "--local-url", "1", "--path-patterns", "(["}, "--path-patterns"},
		{"bad path glob", []string{"generate", "--input", "s.yaml", "--local-url", "1", "--paths", "/pet/["}, "--paths"},
		{"tag overlap", []string{"generate", "--input", "s.yaml", "--local-url", "1", "--include-tags", "a", "--exclude-tags", "a"}, "overlap"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			captured, err := captureGenerate(t, tc.args...)
			if err == nil {
				t.Fatalf("expected error, got config %+v", captured)
			}
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestValueAsInt(t *testing.T) {
	t.Parallel()
	if n, err := valueAsInt(float64(3), 32); err != nil || n != 3 {
		t.Fatalf("float: %d %v", n, err)
	}
	if _, err := valueAsInt(1.5, 32); err == nil {
		t.Fatalf("expected error for fractional value")
	}
	if _, err := valueAsInt(int64(1)<<40, 32); err == nil {
		t.Fatalf("expected range error")
	}
	if _, err := valueAsInt("abc", 64); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := valueAsInt(true, 64); err == nil {
		t.Fatalf("expected type error")
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
