package cli

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/cobra"

    "github.com/mark3labs/swagger2postman/internal/logging"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "init",
        Short: "Scaffold a sample swagger2postman configuration file",
        Long:  "Scaffold a commented swagger2postman configuration file that documents every generate option.",
        RunE: func(cmd *cobra.Command, args []string) error {
            out, err := cmd.Flags().GetString("out")
            if err != nil {
                return err
            }
            force, err := cmd.Flags().GetBool("force")
            if err != nil {
                return err
            }
            verbose, err := cmd.Flags().GetBool("verbose")
            if err != nil {
                return err
            }
            cfg := &InitConfig{
                OutputPath: out,
                Force:      force,
                Verbose:    verbose,
            }
            return initRunner(cmd.Context(), cfg)
        },
    }

    cmd.Flags().String("out", "swagger2postman.yaml", "Where to write the sample config file")
    cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

    return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
    _ = ctx

    out := strings.TrimSpace(cfg.OutputPath)
    if out == "" {
        out = "swagger2postman.yaml"
    }
    absPath, err := filepath.Abs(out)
    if err != nil {
        return fmt.Errorf("init: resolve output path: %w", err)
    }

    if st, err := os.Stat(absPath); err == nil && !cfg.Force {
        if st.Mode().IsRegular() {
            return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
        }
    }

    if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
        return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
    }

    content := strings.TrimSpace(sampleConfigYAML) + "\n"

    // Atomic write via temp + rename
    tmp := absPath + ".tmp"
    if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
        return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
    }
    if err := os.Rename(tmp, absPath); err != nil {
        _ = os.Remove(tmp)
        return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
    }
    if cfg.Verbose {
        log := logging.New(logging.Config{Level: logging.LevelDebug, Output: os.Stderr})
        log.Debug("sample config written", "path", absPath, "bytes", len(content))
    }
    fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
    return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# swagger2postman configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Path or URL to the Swagger/OpenAPI document (http/https or local file).
# input: ./swagger.yaml

# Directory the <name>.postman_collection.json file is written to.
# out: ./collections

# Collection name. Defaults to the document title.
# collectionName: Pet Store

# Environments. At least one is required; an omitted one is left out of the
# collection. localUrl becomes localhost:<value>, remoteUrl https://<value>.
# localUrl: 8080
# remoteUrl: api.example.com

# Placeholder values for int64 fields and {id} path segments, int32 fields,
# and the pageSize query parameter.
# defaultLong: 1
# defaultInteger: 1
# defaultPageSize: 20

# Only include operations with these tags (comma-separated or list).
# includeTags: [pet-controller]

# Exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only include these HTTP methods, paths matching these regular expressions,
# or paths matching these globs.
# methods: [get, post]
# pathPatterns: ["^/v1/"]
# paths: ["/v1/**"]

# Operations declaring both a body and form-data parameters:
# reject (fail the build) or prefer-form (keep the form-data body).
# ambiguity: reject

# Preview the planned file without writing it.
# dryRun: false

# Overwrite an existing collection file.
# force: false

# Debug logging, and log format (text|json).
# verbose: false
# logFormat: text
`
