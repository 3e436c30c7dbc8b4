package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/internal/archive"
)

func newHistoryCmd(a *app) *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show archived tally runs",
		Long: `List the runs recorded with --archive, newest first. With a run ID, print
the item counts of that run instead.`,
		Example: `  tally history
  tally history 01935c3e-7a4b-7c1d-9f2e-3b5a6c7d8e9f
  tally history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd.OutOrStdout(), args, jsonMode)
		},
	}
	cmd.Flags().BoolVar(&jsonMode, "json", false, "output as JSON")
	return cmd
}

func (a *app) runHistory(out io.Writer, args []string, jsonMode bool) error {
	dataDir, err := a.resolveDataDir()
	if err != nil {
		return &exitError{code: exitSysError, err: err}
	}

	// Reading history must not create an archive as a side effect.
	if _, err := os.Stat(filepath.Join(dataDir, archive.DBFileName)); errors.Is(err, os.ErrNotExist) {
		if len(args) == 1 {
			return &exitError{code: exitUserError, err: fmt.Errorf("%w: %s", archive.ErrRunNotFound, args[0])}
		}
		if jsonMode {
			return writeJSON(out, []archive.Run{})
		}
		fmt.Fprintln(out, "No archived runs.")
		return nil
	}

	arc, err := archive.Open(dataDir)
	if err != nil {
		return &exitError{code: exitSysError, err: fmt.Errorf("open archive: %w", err)}
	}
	defer arc.Close()

	if len(args) == 1 {
		return printRunItems(out, arc, args[0], jsonMode)
	}
	return printRuns(out, arc, jsonMode)
}

func printRuns(out io.Writer, arc *archive.Archive, jsonMode bool) error {
	runs, err := arc.Runs()
	if err != nil {
		return &exitError{code: exitSysError, err: fmt.Errorf("list runs: %w", err)}
	}
	if jsonMode {
		if runs == nil {
			runs = []archive.Run{}
		}
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No archived runs.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tITEMS\tTOTAL\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.DistinctItems, r.TotalItems, r.Source)
	}
	return tw.Flush()
}

func printRunItems(out io.Writer, arc *archive.Archive, runID string, jsonMode bool) error {
	items, err := arc.Items(runID)
	if errors.Is(err, archive.ErrRunNotFound) {
		return &exitError{code: exitUserError, err: err}
	}
	if err != nil {
		return &exitError{code: exitSysError, err: fmt.Errorf("list items: %w", err)}
	}
	if jsonMode {
		return writeJSON(out, items)
	}
	for _, e := range items {
		fmt.Fprintf(out, "%s %d\n", e.Name, e.Count)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
