package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theapemachine/s3flow/nodes"
)

// nodesCmd lists the node types run and schema accept
var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the available node types",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, nodeType := range nodes.NewRegistry().Types() {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), nodeType); err != nil {
				return err
			}
		}
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema <node>",
	Short: "Print the JSON schema of the message a node reads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := nodes.Schema(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), schema)
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(schemaCmd)
}
