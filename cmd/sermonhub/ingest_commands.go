package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chukwujekwu-code/sermon-hub/internal/api"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Inspect and manage the ingestion queue",
	}

	ingestCmd.AddCommand(newIngestAddCommand(ctx))
	ingestCmd.AddCommand(newIngestListCommand(ctx))
	ingestCmd.AddCommand(newIngestShowCommand(ctx))
	ingestCmd.AddCommand(newIngestRetryCommand(ctx))
	ingestCmd.AddCommand(newIngestStatsCommand(ctx))
	ingestCmd.AddCommand(newIngestClearCommand(ctx))

	return ingestCmd
}

func newIngestAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <video-id-or-url>",
		Short: "Queue a single video for ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseVideoRef(args[0])
			if err != nil {
				return err
			}
			ingest, cleanup, err := ctx.ingestAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			resp, err := ingest.Enqueue(cmd.Context(), videoID)
			if err != nil {
				return err
			}
			label := resp.Record.VideoID
			if title := strings.TrimSpace(resp.Record.Title); title != "" {
				label = fmt.Sprintf("%s (%s)", title, resp.Record.VideoID)
			}
			out := cmd.OutOrStdout()
			if resp.Created {
				fmt.Fprintf(out, "Queued %s as record %d\n", label, resp.Record.ID)
			} else {
				fmt.Fprintf(out, "%s is already queued as record %d\n", label, resp.Record.ID)
			}
			return nil
		},
	}
}

func newIngestListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ingestion records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ingest, cleanup, err := ctx.ingestAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := ingest.List(cmd.Context(), statusFilter)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"records": records})
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}
			table := renderTable([]tableColumn{
				{title: "ID", align: alignRight},
				{title: "Title", width: 48},
				{title: "Status"},
				{title: "Created"},
				{title: "Video"},
			}, buildIngestListRows(records))
			fmt.Fprintln(out, table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Filter by record status")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newIngestShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ingestion record in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			ingest, cleanup, err := ctx.ingestAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			record, err := ingest.Describe(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if record == nil {
				fmt.Fprintf(out, "Record %d not found\n", ids[0])
				return nil
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"record": record})
			}
			printIngestRecord(out, record)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of field lines")
	return cmd
}

func printIngestRecord(out io.Writer, record *api.IngestRecord) {
	line := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(out, "%-14s %s\n", label+":", value)
	}
	line("ID", strconv.FormatInt(record.ID, 10))
	line("Video", record.VideoID)
	line("Title", record.Title)
	line("Channel", record.ChannelID)
	line("Status", formatStatusLabel(record.Status))
	line("Audio", record.AudioPath)
	line("Transcript", record.TranscriptPath)
	line("Source", record.TranscriptSource)
	if record.ErrorCount > 0 {
		line("Error count", strconv.Itoa(record.ErrorCount))
	}
	line("Failed stage", record.FailedStage)
	line("Last error", record.ErrorMessage)
	line("Created", formatDisplayTime(record.CreatedAt))
	line("Updated", formatDisplayTime(record.UpdatedAt))
}

func newIngestRetryCommand(ctx *commandContext) *cobra.Command {
	var retryAll bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "retry [id...]",
		Short: "Reset failed records for another attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			if retryAll && len(args) > 0 {
				return errors.New("specify record ids or --all, not both")
			}
			if !retryAll && len(args) == 0 {
				return errors.New("provide record ids or --all")
			}
			ingest, cleanup, err := ctx.ingestAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if retryAll {
				result, err := ingest.RetryAll(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				fmt.Fprintf(out, "Reset %d failed records\n", result.ResetCount)
				return nil
			}

			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			result, err := ingest.Retry(cmd.Context(), ids)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printRetryResult(out, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&retryAll, "all", false, "Reset every failed record")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}

func printRetryResult(out io.Writer, result api.RetryRecordsResult) {
	for _, record := range result.Records {
		switch record.Outcome {
		case api.RetryOutcomeNotFound:
			fmt.Fprintf(out, "Record %d not found\n", record.ID)
		case api.RetryOutcomeNotFailed:
			fmt.Fprintf(out, "Record %d is not in a failed state\n", record.ID)
		case api.RetryOutcomeReset:
			fmt.Fprintf(out, "Record %d reset for retry\n", record.ID)
		}
	}
}

func newIngestStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show queue counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ingest, cleanup, err := ctx.ingestAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := ingest.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"counts": stats})
			}
			out := cmd.OutOrStdout()
			rows := buildQueueStatusRows(stats)
			if len(rows) == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}
			table := renderTable([]tableColumn{{title: "Status"}, {title: "Count", align: alignRight}}, rows)
			fmt.Fprintln(out, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newIngestClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove terminal records from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted == clearFailed {
				return errors.New("specify exactly one of --completed or --failed")
			}
			ingest, cleanup, err := ctx.ingestAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if clearCompleted {
				removed, err := ingest.ClearCompleted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d completed records\n", removed)
				return nil
			}
			removed, err := ingest.ClearFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Cleared %d failed records\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove completed records")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove failed records")
	return cmd
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid record id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
