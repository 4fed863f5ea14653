package main

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/api"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildIngestListRows(records []api.IngestRecord) [][]string {
	if len(records) == 0 {
		return nil
	}
	sorted := make([]api.IngestRecord, len(records))
	copy(sorted, records)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseDisplayTime(sorted[i].CreatedAt)
		tj := parseDisplayTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, record := range sorted {
		title := strings.TrimSpace(record.Title)
		if title == "" {
			title = record.VideoID
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", record.ID),
			title,
			formatStatusLabel(record.Status),
			formatDisplayTime(record.CreatedAt),
			record.VideoID,
		})
	}
	return rows
}

func buildChannelRows(channels []api.ChannelSummary) [][]string {
	if len(channels) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(channels))
	for _, channel := range channels {
		synced := formatDisplayTime(channel.LastSyncAt)
		if synced == "" {
			synced = "never"
		}
		rows = append(rows, []string{
			channel.ChannelID,
			channel.Name,
			yesNo(channel.Active),
			synced,
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func parseDisplayTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

// parseVideoRef accepts a bare video id, a watch URL, a youtu.be short link,
// or a shorts/live/embed URL and returns the video id.
func parseVideoRef(arg string) (string, error) {
	trimmed := strings.TrimSpace(arg)
	if trimmed == "" {
		return "", errors.New("video id or URL is required")
	}
	if !strings.ContainsAny(trimmed, "/?") {
		return trimmed, nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid video reference %q", arg)
	}
	if v := strings.TrimSpace(parsed.Query().Get("v")); v != "" {
		return v, nil
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	last := ""
	if len(segments) > 0 {
		last = strings.TrimSpace(segments[len(segments)-1])
	}
	if last == "" {
		return "", fmt.Errorf("could not extract a video id from %q", arg)
	}
	if strings.EqualFold(parsed.Host, "youtu.be") {
		return last, nil
	}
	if len(segments) >= 2 {
		switch segments[len(segments)-2] {
		case "shorts", "live", "embed":
			return last, nil
		}
	}
	return "", fmt.Errorf("could not extract a video id from %q", arg)
}
