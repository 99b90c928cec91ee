package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridpulse/microgrid-dispatch/client"
	"github.com/gridpulse/microgrid-dispatch/core/dispatch"
)

var createFlags struct {
	active   bool
	dryRun   bool
	payload  string
	freq     string
	interval uint32
	count    uint32
	until    string
}

var createCmd = &cobra.Command{
	Use:   "create MICROGRID_ID TYPE START_TIME DURATION SELECTOR",
	Short: "Create a dispatch",
	Long: `Create a dispatch for MICROGRID_ID of type TYPE starting at START_TIME
(RFC 3339) and running for DURATION (Go duration syntax, "0" for no end).

SELECTOR is a category name such as BATTERY or a comma separated component
id list such as "1,2,3".`,
	Args: cobra.ExactArgs(5),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().BoolVarP(&createFlags.active, "active", "a", true, "active status")
	createCmd.Flags().BoolVarP(&createFlags.dryRun, "dry-run", "d", false, "dry run status")
	createCmd.Flags().StringVarP(&createFlags.payload, "payload", "p", "", "JSON payload for the dispatch")
	createCmd.Flags().StringVar(&createFlags.freq, "freq", "", "recurrence frequency: hourly, daily, weekly or monthly")
	createCmd.Flags().Uint32Var(&createFlags.interval, "interval", 1, "recurrence interval")
	createCmd.Flags().Uint32Var(&createFlags.count, "count", 0, "end the recurrence after this many repetitions")
	createCmd.Flags().StringVar(&createFlags.until, "until", "", "end the recurrence at this RFC 3339 instant")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	microgridID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid microgrid id %q: %w", args[0], err)
	}
	startTime, err := time.Parse(time.RFC3339, args[2])
	if err != nil {
		return fmt.Errorf("invalid start time %q: %w", args[2], err)
	}
	var duration *time.Duration
	if args[3] != "0" {
		d, err := time.ParseDuration(args[3])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[3], err)
		}
		duration = &d
	}
	selector, err := dispatch.ParseSelector(args[4])
	if err != nil {
		return err
	}

	var payload map[string]any
	if createFlags.payload != "" {
		if err := json.Unmarshal([]byte(createFlags.payload), &payload); err != nil {
			return fmt.Errorf("invalid payload: %w", err)
		}
	}

	recurrence, err := recurrenceFromFlags()
	if err != nil {
		return err
	}

	cli, err := newClient()
	if err != nil {
		return err
	}
	created, err := cli.Create(cmd.Context(), client.CreateRequest{
		MicrogridID: microgridID,
		Type:        args[1],
		StartTime:   startTime,
		Duration:    duration,
		Selector:    selector,
		Active:      createFlags.active,
		DryRun:      createFlags.dryRun,
		Payload:     payload,
		Recurrence:  recurrence,
	})
	if err != nil {
		return err
	}
	if err := printDispatch(created); err != nil {
		return err
	}
	fmt.Println("Dispatch created.")
	return nil
}

func recurrenceFromFlags() (dispatch.RecurrenceRule, error) {
	var rule dispatch.RecurrenceRule
	if createFlags.freq == "" {
		return rule, nil
	}
	switch createFlags.freq {
	case "hourly":
		rule.Frequency = dispatch.FrequencyHourly
	case "daily":
		rule.Frequency = dispatch.FrequencyDaily
	case "weekly":
		rule.Frequency = dispatch.FrequencyWeekly
	case "monthly":
		rule.Frequency = dispatch.FrequencyMonthly
	default:
		return rule, fmt.Errorf("unknown frequency %q", createFlags.freq)
	}
	rule.Interval = createFlags.interval

	if createFlags.count > 0 && createFlags.until != "" {
		return rule, fmt.Errorf("--count and --until are mutually exclusive")
	}
	if createFlags.count > 0 {
		rule.EndCriteria = dispatch.EndAfter(createFlags.count)
	}
	if createFlags.until != "" {
		until, err := time.Parse(time.RFC3339, createFlags.until)
		if err != nil {
			return rule, fmt.Errorf("invalid until %q: %w", createFlags.until, err)
		}
		rule.EndCriteria = dispatch.EndBefore(until)
	}
	return rule, nil
}
