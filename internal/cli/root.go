// Package cli wires the resource-sdk-gen commands: flag and config merging,
// logger setup and usage errors.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the resource-sdk-gen CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "resource-sdk-gen",
		Short:         "Generate resource-oriented JavaScript SDKs from OpenAPI documents",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// Subcommands inherit the flag error func.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	})

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newValidateCmd())
	return cmd
}
