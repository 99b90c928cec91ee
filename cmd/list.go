package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridpulse/microgrid-dispatch/client"
	"github.com/gridpulse/microgrid-dispatch/core/dispatch"
)

var listFlags struct {
	selectors []string
	startFrom string
	startTo   string
	endFrom   string
	endTo     string
	active    string
	dryRun    string
}

var listCmd = &cobra.Command{
	Use:   "list MICROGRID_ID",
	Short: "List dispatches",
	Long: `List all dispatches of MICROGRID_ID matching the given filters.

The --selector option can be given multiple times; a record matches when its
selector equals any of them.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringArrayVarP(&listFlags.selectors, "selector", "s", nil, "selector to match (repeatable)")
	listCmd.Flags().StringVar(&listFlags.startFrom, "start-from", "", "match start_time >= this RFC 3339 instant")
	listCmd.Flags().StringVar(&listFlags.startTo, "start-to", "", "match start_time < this RFC 3339 instant")
	listCmd.Flags().StringVar(&listFlags.endFrom, "end-from", "", "match end time >= this RFC 3339 instant")
	listCmd.Flags().StringVar(&listFlags.endTo, "end-to", "", "match end time < this RFC 3339 instant")
	listCmd.Flags().StringVar(&listFlags.active, "active", "", "match active status (true/false)")
	listCmd.Flags().StringVar(&listFlags.dryRun, "dry-run", "", "match dry run status (true/false)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	microgridID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid microgrid id %q: %w", args[0], err)
	}

	req := client.ListRequest{MicrogridID: microgridID}
	for _, s := range listFlags.selectors {
		sel, err := dispatch.ParseSelector(s)
		if err != nil {
			return err
		}
		req.Selectors = append(req.Selectors, sel)
	}
	if req.StartFrom, err = parseOptionalTime(listFlags.startFrom); err != nil {
		return err
	}
	if req.StartTo, err = parseOptionalTime(listFlags.startTo); err != nil {
		return err
	}
	if req.EndFrom, err = parseOptionalTime(listFlags.endFrom); err != nil {
		return err
	}
	if req.EndTo, err = parseOptionalTime(listFlags.endTo); err != nil {
		return err
	}
	if req.Active, err = parseOptionalBool(listFlags.active); err != nil {
		return err
	}
	if req.DryRun, err = parseOptionalBool(listFlags.dryRun); err != nil {
		return err
	}

	cli, err := newClient()
	if err != nil {
		return err
	}

	total := 0
	pager := cli.List(req)
	for {
		page, err := pager.Next(cmd.Context())
		if err == client.ErrDone {
			break
		}
		if err != nil {
			return err
		}
		for _, d := range page {
			if err := printDispatch(d); err != nil {
				return err
			}
			total++
		}
	}
	fmt.Printf("%d dispatches total.\n", total)
	return nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return &t, nil
}

func parseOptionalBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid boolean %q: %w", s, err)
	}
	return &b, nil
}
