// ABOUTME: Push command submitting a record to a running broadcaster
// ABOUTME: Sends the configured Origin so gated servers accept it
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/nowplaying-broadcaster/internal/domain/track"
	"github.com/harper/nowplaying-broadcaster/internal/infrastructure/client"
)

func newPushCommand() *cobra.Command {
	var server, origin string
	var title, artist, cover, url string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Set the now-playing record on a running broadcaster",
		Long:  "Set the now-playing record. Omitted fields are cleared; pushing with no fields shows the placeholder.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(client.Config{BaseURL: server, Origin: origin})

			sub := track.SubmissionFrom(title, artist, cover, url)
			if err := c.Push(cmd.Context(), sub); err != nil {
				return fmt.Errorf("push: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), track.Sanitize(sub).DisplayLine())
			return nil
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:3000", "Broadcaster base URL")
	cmd.Flags().StringVar(&origin, "origin", "", "Origin header to send (must match update.allowed_origin)")
	cmd.Flags().StringVar(&title, "title", "", "Track title")
	cmd.Flags().StringVar(&artist, "artist", "", "Track artist")
	cmd.Flags().StringVar(&cover, "cover", "", "Cover image URL")
	cmd.Flags().StringVar(&url, "url", "", "Track link URL")
	return cmd
}
