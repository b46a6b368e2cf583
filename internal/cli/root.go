package cli

import (
    "fmt"

    "github.com/spf13/cobra"
)

// Execute runs the swagger2postman CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:           "swagger2postman",
        Short:         "Generate Postman collections from Swagger/OpenAPI documents",
        Long:          "swagger2postman turns a Swagger 2.0 (or OpenAPI 3.0) document into a Postman collection with per-environment request trees and chained workflow scripts.",
        SilenceErrors: true,
        SilenceUsage:  true,
        RunE: func(cmd *cobra.Command, args []string) error {
            return cmd.Help()
        },
    }

    cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
    cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging on stderr")
    cmd.PersistentFlags().String("log-format", "text", "Log format: text|json")

    for _, sub := range []*cobra.Command{newGenerateCmd(), newInitCmd()} {
        cmd.AddCommand(sub)
    }

    // Convert Cobra flag errors (like unknown flags) into usage errors that
    // also show the offending command's help text.
    for _, c := range append([]*cobra.Command{cmd}, cmd.Commands()...) {
        c.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
            return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
        })
    }

    return cmd
}
