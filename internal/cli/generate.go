package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/swagger2postman/internal/emitter/postmanemitter"
	"github.com/mark3labs/swagger2postman/internal/logging"
	"github.com/mark3labs/swagger2postman/internal/spec"
	"github.com/mark3labs/swagger2postman/internal/synth"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input          string
	Out            string
	CollectionName string
	LocalURL       string
	RemoteURL      string

	DefaultLong     int64
	DefaultInteger  int32
	DefaultPageSize int

	IncludeTags  []string
	ExcludeTags  []string
	Methods      []string
	PathPatterns []string
	PathGlobs    []string
	Ambiguity    string

	ConfigPath string
	DryRun     bool
	Force      bool
	Verbose    bool
	LogFormat  string
}

func defaultGenerateConfig() GenerateConfig {
	d := synth.DefaultDefaults()
	return GenerateConfig{
		Out:             ".",
		DefaultLong:     d.Long,
		DefaultInteger:  d.Integer,
		DefaultPageSize: d.PageSize,
		Ambiguity:       string(synth.RejectAmbiguous),
		LogFormat:       string(logging.FormatText),
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a Postman collection from a Swagger/OpenAPI document",
		Long: "Generate a Postman collection (v2.1) from a Swagger 2.0 or OpenAPI 3.0 document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  swagger2postman generate --input swagger.yaml --local-url 8080 --out ./collections
  swagger2postman --config swagger2postman.yaml generate --remote-url api.example.com --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	d := synth.DefaultDefaults()
	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("out", "", "Output directory for the collection file (default \".\")")
	flags.String("collection-name", "", "Collection name (defaults to the document title)")
	flags.String("local-url", "", "Local environment port or host:port, emitted as localhost:<value>")
	flags.String("remote-url", "", "Remote environment host, emitted as https://<value>")
	flags.Int64("default-long", d.Long, "Placeholder for int64 values and {id} path segments")
	flags.Int32("default-integer", d.Integer, "Placeholder for int32 values")
	flags.Int("default-page-size", d.PageSize, "Value of the pageSize query parameter")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include these HTTP methods (e.g. get,post)")
	flags.StringSlice("path-patterns", nil, "Only include paths matching these regular expressions")
	flags.StringSlice("paths", nil, "Only include paths matching these globs (e.g. /pet/**)")
	flags.String("ambiguity", "", "Operations with both body and form-data parameters: reject|prefer-form")
	flags.Bool("dry-run", false, "Preview the planned file without writing it")
	flags.Bool("force", false, "Overwrite an existing collection file")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"input":           &cfg.Input,
		"out":             &cfg.Out,
		"collection-name": &cfg.CollectionName,
		"local-url":       &cfg.LocalURL,
		"remote-url":      &cfg.RemoteURL,
		"ambiguity":       &cfg.Ambiguity,
		"log-format":      &cfg.LogFormat,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}

	lists := map[string]*[]string{
		"include-tags":  &cfg.IncludeTags,
		"exclude-tags":  &cfg.ExcludeTags,
		"methods":       &cfg.Methods,
		"path-patterns": &cfg.PathPatterns,
		"paths":         &cfg.PathGlobs,
	}
	for name, dst := range lists {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeTags(value)
	}

	bools := map[string]*bool{
		"dry-run": &cfg.DryRun,
		"force":   &cfg.Force,
		"verbose": &cfg.Verbose,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	if flags.Changed("default-long") {
		value, err := flags.GetInt64("default-long")
		if err != nil {
			return err
		}
		cfg.DefaultLong = value
	}
	if flags.Changed("default-integer") {
		value, err := flags.GetInt32("default-integer")
		if err != nil {
			return err
		}
		cfg.DefaultInteger = value
	}
	if flags.Changed("default-page-size") {
		value, err := flags.GetInt("default-page-size")
		if err != nil {
			return err
		}
		cfg.DefaultPageSize = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	if c.Out == "" {
		c.Out = "."
	}
	c.CollectionName = strings.TrimSpace(c.CollectionName)
	c.LocalURL = strings.TrimSpace(c.LocalURL)
	c.RemoteURL = strings.TrimPrefix(strings.TrimSpace(c.RemoteURL), "https://")
	c.Ambiguity = strings.ToLower(strings.TrimSpace(c.Ambiguity))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	c.PathPatterns = sanitizeTags(c.PathPatterns)
	c.PathGlobs = sanitizeTags(c.PathGlobs)
	methods := sanitizeTags(c.Methods)
	for i, m := range methods {
		methods[i] = strings.ToLower(m)
	}
	c.Methods = methods
}

var knownMethods = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true, "patch": true, "head": true, "options": true,
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}
	if c.LocalURL == "" && c.RemoteURL == "" {
		return newUsageError("generate: at least one of --local-url or --remote-url is required")
	}
	if c.DefaultPageSize <= 0 {
		return newUsageError(fmt.Sprintf("generate: --default-page-size must be > 0 (got %d)", c.DefaultPageSize))
	}
	if _, err := synth.ParseAmbiguityPolicy(c.Ambiguity); err != nil {
		return newUsageError(fmt.Sprintf("generate: unsupported --ambiguity %q (allowed: reject, prefer-form)", c.Ambiguity))
	}
	if _, ok := logging.ParseFormat(c.LogFormat); !ok {
		return newUsageError(fmt.Sprintf("generate: unsupported --log-format %q (allowed: text, json)", c.LogFormat))
	}
	for _, m := range c.Methods {
		if !knownMethods[m] {
			return newUsageError(fmt.Sprintf("generate: unsupported method %q in --methods", m))
		}
	}
	for _, p := range c.PathPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return newUsageError(fmt.Sprintf("generate: invalid --path-patterns entry %q: %v", p, err))
		}
	}
	for _, g := range c.PathGlobs {
		if !doublestar.ValidatePattern(g) {
			return newUsageError(fmt.Sprintf("generate: invalid --paths glob %q", g))
		}
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}

	return nil
}

func (c *GenerateConfig) logger() *slog.Logger {
	format, _ := logging.ParseFormat(c.LogFormat)
	level := logging.LevelWarn
	if c.Verbose {
		level = logging.LevelDebug
	}
	return logging.New(logging.Config{Level: level, Format: format, Output: os.Stderr})
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	log := cfg.logger()

	// 1) Load the document (file or http/https URL), converting OpenAPI 3 when needed
	doc, err := spec.Load(ctx, cfg.Input, spec.WithLogger(log))
	if err != nil {
		var se *spec.SpecError
		if errors.As(err, &se) {
			msg := fmt.Sprintf("spec: %s", se.Message)
			if se.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
			}
			if se.JSONPointer != "" {
				msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
			}
			return newUsageError(msg)
		}
		return err
	}

	// 2) Ingest into the checked source model with filters
	methods := make([]spec.HttpMethod, 0, len(cfg.Methods))
	for _, m := range cfg.Methods {
		methods = append(methods, spec.HttpMethod(m))
	}
	sd, err := spec.BuildSourceDocument(
		ctx,
		doc,
		spec.WithIncludeTags(cfg.IncludeTags),
		spec.WithExcludeTags(cfg.ExcludeTags),
		spec.WithMethods(methods),
		spec.WithPathPatterns(cfg.PathPatterns),
		spec.WithPathGlobs(cfg.PathGlobs),
	)
	if err != nil {
		return fmt.Errorf("build source document: %w", err)
	}

	// 3) Synthesize the collection
	policy, _ := synth.ParseAmbiguityPolicy(cfg.Ambiguity)
	coll, err := synth.Build(sd, cfg.environments(sd.Title),
		synth.WithDefaults(synth.Defaults{Long: cfg.DefaultLong, Integer: cfg.DefaultInteger, PageSize: cfg.DefaultPageSize}),
		synth.WithAmbiguityPolicy(policy),
		synth.WithLogger(log),
	)
	if err != nil {
		if errors.Is(err, synth.ErrSchemaResolution) || errors.Is(err, synth.ErrAmbiguousParameters) || errors.Is(err, synth.ErrConfig) {
			return newUsageError(err.Error())
		}
		return err
	}

	// 4) Emit
	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	res, err := postmanemitter.Emit(ctx, coll, postmanemitter.Options{
		OutDir: cfg.Out,
		Name:   cfg.CollectionName,
		Force:  cfg.Force,
		DryRun: cfg.DryRun,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}
	paths := make([]string, 0, len(res.Planned))
	for _, p := range res.Planned {
		paths = append(paths, p.RelPath)
	}
	if cfg.DryRun {
		printPlan(absOut, len(res.Planned), paths)
		return nil
	}
	log.Info("collection written", "dir", absOut, "files", paths)
	return nil
}

// environments maps the configured URLs onto the synthesizer's environment
// model. The collection name falls back to the document title.
func (c *GenerateConfig) environments(title string) synth.EnvironmentConfig {
	name := c.CollectionName
	if name == "" {
		name = strings.TrimSpace(title)
	}
	if name == "" {
		name = "API"
	}
	env := synth.EnvironmentConfig{CollectionName: name}
	if c.LocalURL != "" {
		env.Local = &synth.Environment{URL: c.LocalURL}
	}
	if c.RemoteURL != "" {
		env.Remote = &synth.Environment{URL: c.RemoteURL}
	}
	return env
}

func printPlan(outDir string, count int, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "already exists") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

// configSetters maps normalized config-file keys onto GenerateConfig fields.
func configSetters(cfg *GenerateConfig) map[string]func(any) error {
	str := func(dst *string) func(any) error {
		return func(v any) error {
			s, err := valueAsString(v)
			*dst = s
			return err
		}
	}
	list := func(dst *[]string) func(any) error {
		return func(v any) error {
			l, err := valueAsStringSlice(v)
			*dst = sanitizeTags(l)
			return err
		}
	}
	boolean := func(dst *bool) func(any) error {
		return func(v any) error {
			b, err := valueAsBool(v)
			*dst = b
			return err
		}
	}
	return map[string]func(any) error{
		"input":          str(&cfg.Input),
		"out":            str(&cfg.Out),
		"collectionname": str(&cfg.CollectionName),
		"localurl":       str(&cfg.LocalURL),
		"remoteurl":      str(&cfg.RemoteURL),
		"ambiguity":      str(&cfg.Ambiguity),
		"logformat":      str(&cfg.LogFormat),
		"includetags":    list(&cfg.IncludeTags),
		"excludetags":    list(&cfg.ExcludeTags),
		"methods":        list(&cfg.Methods),
		"pathpatterns":   list(&cfg.PathPatterns),
		"paths":          list(&cfg.PathGlobs),
		"dryrun":         boolean(&cfg.DryRun),
		"force":          boolean(&cfg.Force),
		"verbose":        boolean(&cfg.Verbose),
		"defaultlong": func(v any) error {
			n, err := valueAsInt(v, 64)
			cfg.DefaultLong = n
			return err
		},
		"defaultinteger": func(v any) error {
			n, err := valueAsInt(v, 32)
			cfg.DefaultInteger = int32(n)
			return err
		},
		"defaultpagesize": func(v any) error {
			n, err := valueAsInt(v, 32)
			cfg.DefaultPageSize = int(n)
			return err
		},
	}
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	setters := configSetters(cfg)
	for key, value := range raw {
		set, ok := setters[normalizeKey(key)]
		if !ok {
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
		if err := set(value); err != nil {
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}

	return nil
}
