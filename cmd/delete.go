package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete MICROGRID_ID DISPATCH_ID...",
	Short: "Delete one or more dispatches",
	Long: `Delete dispatches by id. Ids may be given individually, as comma
separated lists or as ranges: "1", "1,2,3", "1-3" and "1..3" all work.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	microgridID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid microgrid id %q: %w", args[0], err)
	}

	var ids []uint64
	for _, arg := range args[1:] {
		parsed, err := parseIDRange(arg)
		if err != nil {
			return err
		}
		ids = append(ids, parsed...)
	}

	cli, err := newClient()
	if err != nil {
		return err
	}

	var deleted, failed []uint64
	for _, id := range ids {
		if err := cli.Delete(cmd.Context(), microgridID, id); err != nil {
			fmt.Fprintf(os.Stderr, "Error deleting dispatch %d: %v\n", id, err)
			failed = append(failed, id)
			continue
		}
		deleted = append(deleted, id)
	}

	if len(deleted) > 0 {
		fmt.Printf("Dispatches deleted: %v\n", deleted)
	}
	if len(failed) > 0 {
		fmt.Fprintf(os.Stderr, "Failed to delete: %v\n", failed)
		if len(deleted) == 0 {
			return fmt.Errorf("all deletions failed")
		}
		return fmt.Errorf("some deletions failed")
	}
	return nil
}

// parseIDRange accepts "7", "1,2,3", "1-3" and "1..3".
func parseIDRange(s string) ([]uint64, error) {
	if strings.Contains(s, ",") {
		var ids []uint64
		for _, part := range strings.Split(s, ",") {
			parsed, err := parseIDRange(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			ids = append(ids, parsed...)
		}
		return ids, nil
	}

	sep := ""
	switch {
	case strings.Contains(s, ".."):
		sep = ".."
	case strings.Contains(s, "-"):
		sep = "-"
	}
	if sep == "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid dispatch id %q: %w", s, err)
		}
		return []uint64{id}, nil
	}

	bounds := strings.SplitN(s, sep, 2)
	lo, err := strconv.ParseUint(strings.TrimSpace(bounds[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id range %q: %w", s, err)
	}
	hi, err := strconv.ParseUint(strings.TrimSpace(bounds[1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id range %q: %w", s, err)
	}
	if hi < lo {
		return nil, fmt.Errorf("invalid id range %q: upper bound below lower", s)
	}
	var ids []uint64
	for id := lo; id <= hi; id++ {
		ids = append(ids, id)
	}
	return ids, nil
}
