package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridpulse/microgrid-dispatch/core/dispatch"
)

var updateFlags struct {
	startTime string
	duration  string
	selector  string
	active    bool
}

var updateCmd = &cobra.Command{
	Use:   "update MICROGRID_ID DISPATCH_ID",
	Short: "Update a dispatch",
	Long: `Update the given fields of a dispatch. At least one field flag must be
set. The type and dry run status of a dispatch cannot be changed.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateFlags.startTime, "start-time", "", "new start time (RFC 3339)")
	updateCmd.Flags().StringVar(&updateFlags.duration, "duration", "", "new duration (Go duration syntax)")
	updateCmd.Flags().StringVar(&updateFlags.selector, "selector", "", "new component selector")
	updateCmd.Flags().BoolVar(&updateFlags.active, "active", false, "new active status")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	microgridID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid microgrid id %q: %w", args[0], err)
	}
	dispatchID, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid dispatch id %q: %w", args[1], err)
	}

	var updates []dispatch.FieldUpdate
	if cmd.Flags().Changed("start-time") {
		t, err := time.Parse(time.RFC3339, updateFlags.startTime)
		if err != nil {
			return fmt.Errorf("invalid start time %q: %w", updateFlags.startTime, err)
		}
		updates = append(updates, dispatch.FieldUpdate{Path: "start_time", Value: t})
	}
	if cmd.Flags().Changed("duration") {
		d, err := time.ParseDuration(updateFlags.duration)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", updateFlags.duration, err)
		}
		updates = append(updates, dispatch.FieldUpdate{Path: "duration", Value: d})
	}
	if cmd.Flags().Changed("selector") {
		sel, err := dispatch.ParseSelector(updateFlags.selector)
		if err != nil {
			return err
		}
		updates = append(updates, dispatch.FieldUpdate{Path: "selector", Value: sel})
	}
	if cmd.Flags().Changed("active") {
		updates = append(updates, dispatch.FieldUpdate{Path: "active", Value: updateFlags.active})
	}

	if len(updates) == 0 {
		return fmt.Errorf("at least one field must be given to update")
	}

	cli, err := newClient()
	if err != nil {
		return err
	}
	updated, err := cli.Update(cmd.Context(), microgridID, dispatchID, updates)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if err := printDispatch(updated); err != nil {
		return err
	}
	fmt.Println("Dispatch updated.")
	return nil
}
