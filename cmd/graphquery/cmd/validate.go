package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/graphquery/internal/config"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <definition>",
		Short: "Validate a graph definition file",
		Long: `Check a graph definition for structural problems: a missing root,
duplicate index identifiers, unknown kinds, malformed documents, or
placeholder references to undefined indices.

Exits non-zero if the definition is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := config.LoadDefinition(args[0])
			if err != nil {
				return err
			}

			docCount := 0
			for _, idx := range def.Indices {
				docCount += len(idx.Documents)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (root %q, %d indices, %d documents)\n",
				args[0], def.Root, len(def.Indices), docCount)
			return nil
		},
	}
	return cmd
}
