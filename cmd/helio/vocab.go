package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newVocabCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "Print the active domain vocabulary as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cls, err := a.buildClassifier(cmd.Context(), false)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cls.Vocabulary())
		},
	}
}
