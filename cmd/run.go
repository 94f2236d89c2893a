package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theapemachine/s3flow/flow"
	"github.com/theapemachine/s3flow/logger"
	"github.com/theapemachine/s3flow/nodes"
)

var (
	runProps   string
	runMessage string
)

/*
runCmd runs one node invocation. The node is built from --props and fed
the message from --message; the message it sends on is printed as JSON.
*/
var runCmd = &cobra.Command{
	Use:   "run <node>",
	Short: "Run one node with the given properties and input message",
	Long: `Run one node invocation and print the message it sends on.

Properties and message are JSON objects, given inline, as a file path, or
as - for stdin. Properties win over message fields of the same name.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		props := flow.Properties{}
		if err := decodeObject(cmd, runProps, &props); err != nil {
			return fmt.Errorf("invalid properties: %w", err)
		}

		msg := flow.Message{}
		if err := decodeObject(cmd, runMessage, &msg); err != nil {
			return fmt.Errorf("invalid message: %w", err)
		}

		node, err := nodes.NewRegistry().New(args[0], props)
		if err != nil {
			return err
		}

		log, invocation := logger.WithInvocation(node.Type())
		log.Debug("Running node", "properties", len(props), "fields", len(msg))

		ctx, cancel := requestContext(cmd)
		defer cancel()

		env := newEnv()
		env.Logger = log

		out, err := flow.Invoke(ctx, env, node, msg)
		if out != nil {
			if perr := printJSON(cmd.OutOrStdout(), out); perr != nil {
				return errors.Join(err, perr)
			}
		}
		if err != nil {
			return fmt.Errorf("%s invocation %s failed: %w", node.Type(), invocation, err)
		}
		return nil
	},
}

func decodeObject(cmd *cobra.Command, value string, target any) error {
	data, err := readInput(cmd, value)
	if err != nil || data == nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runProps, "props", "p", "", "node properties as a JSON object")
	runCmd.Flags().StringVarP(&runMessage, "message", "m", "", "input message as a JSON object")
}
