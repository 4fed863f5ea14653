package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newChannelCommand(ctx *commandContext) *cobra.Command {
	channelCmd := &cobra.Command{
		Use:   "channel",
		Short: "Manage tracked channels",
	}

	channelCmd.AddCommand(newChannelAddCommand(ctx))
	channelCmd.AddCommand(newChannelListCommand(ctx))
	channelCmd.AddCommand(newChannelRemoveCommand(ctx))
	channelCmd.AddCommand(setChannelActiveCommand(ctx, "pause", "Pause syncing for a channel", false, "Paused"))
	channelCmd.AddCommand(setChannelActiveCommand(ctx, "resume", "Resume syncing for a channel", true, "Resumed"))

	return channelCmd
}

func newChannelAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <channel>",
		Short: "Track a channel by URL, @handle, or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channels, cleanup, err := ctx.channelAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			channel, err := channels.Add(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added channel %s (%s)\n", channel.Name, channel.ChannelID)
			return nil
		},
	}
}

func newChannelListCommand(ctx *commandContext) *cobra.Command {
	var activeOnly bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			channels, cleanup, err := ctx.channelAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			summaries, err := channels.List(cmd.Context(), activeOnly)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"channels": summaries})
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No channels registered")
				return nil
			}
			table := renderTable([]tableColumn{
				{title: "ID"},
				{title: "Name", width: 40},
				{title: "Active"},
				{title: "Last Synced"},
			}, buildChannelRows(summaries))
			fmt.Fprintln(out, table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Show only active channels")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newChannelRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <channel-id>",
		Short: "Stop tracking a channel and drop its queue entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channels, cleanup, err := ctx.channelAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			removed, err := channels.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !removed {
				fmt.Fprintf(out, "Channel %s not found\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "Removed channel %s\n", args[0])
			return nil
		},
	}
}

func setChannelActiveCommand(ctx *commandContext, use, short string, active bool, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <channel-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channels, cleanup, err := ctx.channelAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			channel, err := channels.SetActive(cmd.Context(), args[0], active)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if channel == nil {
				fmt.Fprintf(out, "Channel %s not found\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "%s channel %s\n", verb, channel.ChannelID)
			return nil
		},
	}
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var syncAll bool

	cmd := &cobra.Command{
		Use:   "sync [channel-id]",
		Short: "Scrape channel uploads and enqueue new sermons",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if syncAll == (len(args) == 1) {
				return errors.New("provide a channel id or --all")
			}
			channels, cleanup, err := ctx.channelAPI(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			targets := args
			if syncAll {
				summaries, err := channels.List(cmd.Context(), true)
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					fmt.Fprintln(out, "No active channels to sync")
					return nil
				}
				targets = make([]string, 0, len(summaries))
				for _, summary := range summaries {
					targets = append(targets, summary.ChannelID)
				}
			}

			for _, channelID := range targets {
				result, err := channels.Sync(cmd.Context(), channelID)
				if err != nil {
					return fmt.Errorf("sync %s: %w", channelID, err)
				}
				fmt.Fprintf(out, "Synced %s: %d seen, %d skipped, %d new\n",
					result.ChannelID, result.VideosSeen, result.VideosSkipped, result.NewlyEnqueued)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&syncAll, "all", false, "Sync every active channel")
	return cmd
}
