package main

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

func init() {
	syncCmd := &cobra.Command{Use: "sync", Short: "Trigger provider sync"}

	var maxResults int
	gmailCmd := &cobra.Command{
		Use:   "gmail",
		Short: "Sync the inbox of the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if maxResults > 0 {
				payload["maxResults"] = maxResults
			}
			return call(func(c *resty.Client) (*resty.Response, error) {
				return c.R().SetBody(payload).Post("/api/gmail/sync")
			})
		},
	}
	gmailCmd.Flags().IntVarP(&maxResults, "max", "m", 0, "Max messages per sync (default: server cap)")
	syncCmd.AddCommand(gmailCmd)

	var startDate, endDate string
	calendarCmd := &cobra.Command{
		Use:   "calendar",
		Short: "Sync a calendar window of the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if startDate != "" {
				t, err := time.Parse(time.RFC3339, startDate)
				if err != nil {
					return err
				}
				payload["startDate"] = t
			}
			if endDate != "" {
				t, err := time.Parse(time.RFC3339, endDate)
				if err != nil {
					return err
				}
				payload["endDate"] = t
			}
			return call(func(c *resty.Client) (*resty.Response, error) {
				return c.R().SetBody(payload).Post("/api/calendar/sync")
			})
		},
	}
	calendarCmd.Flags().StringVar(&startDate, "start", "", "Window start (RFC3339, default now)")
	calendarCmd.Flags().StringVar(&endDate, "end", "", "Window end (RFC3339, default start+30d)")
	syncCmd.AddCommand(calendarCmd)

	rootCmd.AddCommand(syncCmd)
}
