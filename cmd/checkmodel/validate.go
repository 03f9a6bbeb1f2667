package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sensorpredict/ml"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [model.json]",
		Short: "Load and schema-check a model artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := ml.LoadModel(args[0])
			if err != nil {
				return err
			}
			info := model.Info()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "type: %s\n", info.Type)
			fmt.Fprintf(out, "features: %s\n", strings.Join(info.Features, ", "))
			fmt.Fprintf(out, "labels: %d\n", len(info.Labels))
			return nil
		},
	}
}
