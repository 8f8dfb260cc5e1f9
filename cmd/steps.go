package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mlpipe/internal/pipeline"
	"mlpipe/internal/steps"
)

func stepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "Lists the registered pipeline steps in execution order",
		Run: func(cmd *cobra.Command, args []string) {
			registry := pipeline.NewRegistry(steps.All()...)
			for _, name := range registry.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
