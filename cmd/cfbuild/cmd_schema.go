package main

import (
	"github.com/spf13/cobra"

	"github.com/cloudfpga/cfbuild/internal/external-adapters/schema"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of .sig records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := schema.NewRecordValidator()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := out.Write(v.Schema()); err != nil {
				return err
			}
			_, err = out.Write([]byte("\n"))
			return err
		},
	}
}
