// ABOUTME: Status command reading a running broadcaster
// ABOUTME: Prints the current record, viewer count, and last update time
package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
	"github.com/harper/nowplaying-broadcaster/internal/infrastructure/client"
)

type statusReport struct {
	NowPlaying  track.Track `json:"now_playing"`
	Line        string      `json:"line"`
	Subscribers int         `json:"subscribers"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

func newStatusCommand() *cobra.Command {
	var server string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what a running broadcaster is playing",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(client.Config{BaseURL: server})

			snap, err := c.Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			health, err := c.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("read health: %w", err)
			}

			report := statusReport{
				NowPlaying:  snap,
				Line:        snap.DisplayLine(),
				Subscribers: health.Subscribers,
				UpdatedAt:   health.UpdatedAt,
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fields := statusFields(report)
			if isTerminal(out) {
				fmt.Fprintln(out, renderTable(fields))
			} else {
				fmt.Fprintln(out, renderLines(fields))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:3000", "Broadcaster base URL")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func statusFields(r statusReport) []field {
	updated := "never"
	if r.UpdatedAt != nil {
		updated = r.UpdatedAt.Local().Format(time.RFC3339)
	}

	fields := []field{
		{label: "Now playing", value: r.Line},
		{label: "Title", value: r.NowPlaying.Title},
		{label: "Artist", value: r.NowPlaying.Artist},
	}
	if r.NowPlaying.Cover != "" {
		fields = append(fields, field{label: "Cover", value: r.NowPlaying.Cover})
	}
	if r.NowPlaying.URL != "" {
		fields = append(fields, field{label: "URL", value: r.NowPlaying.URL})
	}
	return append(fields,
		field{label: "Viewers", value: strconv.Itoa(r.Subscribers)},
		field{label: "Updated", value: updated},
	)
}
