package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var mood string
	var limit int
	var minScore float64
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Find sermons for an emotional state",
		Long: `Search expands a free-text description of how you feel (or a named mood)
into concrete phrases and ranks indexed sermons by how closely their
transcripts speak to them. The daemon must be running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" && strings.TrimSpace(mood) == "" {
				return errors.New("provide a query or --mood")
			}

			client, err := ctx.dialDaemon(cmd.Context())
			if err != nil {
				return err
			}

			results, err := client.Search(cmd.Context(), query, mood, limit, minScore)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), results)
			}

			out := cmd.OutOrStdout()
			if len(results.Items) == 0 {
				fmt.Fprintln(out, "No sermons matched. Try a broader phrase or a lower --min-score.")
				return nil
			}

			if len(results.Phrases) > 0 {
				fmt.Fprintf(out, "Interpreted as: %s\n\n", strings.Join(results.Phrases, "; "))
			}
			for i, item := range results.Items {
				title := strings.TrimSpace(item.Title)
				if title == "" {
					title = item.VideoID
				}
				header := fmt.Sprintf("%d. %s", i+1, title)
				if channel := strings.TrimSpace(item.ChannelName); channel != "" {
					header += " - " + channel
				}
				fmt.Fprintf(out, "%s  [score %.2f]\n", header, item.Score)
				fmt.Fprintf(out, "   %s\n", item.YouTubeURL)
				if excerpt := strings.TrimSpace(item.Excerpt); excerpt != "" {
					fmt.Fprintf(out, "   \"%s\"\n", excerpt)
				}
				if phrase := strings.TrimSpace(item.MatchedPhrase); phrase != "" {
					fmt.Fprintf(out, "   matched: %s\n", phrase)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mood, "mood", "", "Named mood instead of a free-text query")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results (0 uses the configured default)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Relevance threshold override (0 uses the configured default)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of text")
	return cmd
}
