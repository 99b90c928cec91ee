package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get MICROGRID_ID DISPATCH_ID...",
	Short: "Get one or more dispatches",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	microgridID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid microgrid id %q: %w", args[0], err)
	}

	cli, err := newClient()
	if err != nil {
		return err
	}

	numFailed := 0
	for _, arg := range args[1:] {
		dispatchID, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid dispatch id %q: %w", arg, err)
		}
		d, err := cli.Get(cmd.Context(), microgridID, dispatchID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting dispatch %d: %v\n", dispatchID, err)
			numFailed++
			continue
		}
		if err := printDispatch(d); err != nil {
			return err
		}
	}

	if numFailed == len(args)-1 {
		return fmt.Errorf("all gets failed")
	}
	if numFailed > 0 {
		return fmt.Errorf("some gets failed")
	}
	return nil
}
