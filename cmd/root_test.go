package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
)

func TestExecuteRunsCommandsOnCancellableContext(t *testing.T) {
	var got context.Context
	checkCmd := &cobra.Command{
		Use: "ctx-check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			got = cmd.Context()
			return nil
		},
	}
	rootCmd.AddCommand(checkCmd)
	defer rootCmd.RemoveCommand(checkCmd)
	rootCmd.SetArgs([]string{"ctx-check"})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got == nil {
		t.Fatalf("command ran without a context")
	}
	// context.Background has a nil Done channel; the signal-bound context
	// must be cancellable.
	if got.Done() == nil {
		t.Fatalf("command context is not cancellable")
	}
}
