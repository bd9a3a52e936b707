package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agencyops/billaudit/pkg/errors"
	"github.com/agencyops/billaudit/pkg/verify"
)

// NewVerifyCommand creates the verify command for testing API access.
func NewVerifyCommand(app AppContext) *cobra.Command {
	var (
		ping   bool
		siteID string
	)

	c := &cobra.Command{
		Use:   "verify",
		Short: "Test platform API access",
		Long: `Verify checks that the configured platform API credentials work by
fetching the status of a known site. Credentials come from the
BILLAUDIT_API_USERNAME and BILLAUDIT_API_PASSWORD environment variables
or a .env file.`,
		Example: `  billaudit verify --ping --site abc123de`,
		RunE: func(c *cobra.Command, _ []string) error {
			if !ping {
				return c.Help()
			}

			creds := app.Credentials()
			if !creds.Configured() {
				return errors.ErrCredentialsRequired
			}
			if siteID == "" {
				return fmt.Errorf("--site is required with --ping")
			}

			client := verify.NewClient(creds)
			status, err := client.TestConnection(c.Context(), siteID)
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			fmt.Fprintf(out, "API connection OK\n")
			fmt.Fprintf(out, "site: %s\n", siteID)
			fmt.Fprintf(out, "publish status: %s\n", status.PublishStatus)
			if status.SiteDomain != "" {
				fmt.Fprintf(out, "domain: %s\n", status.SiteDomain)
			}
			return nil
		},
	}

	c.Flags().BoolVar(&ping, "ping", false, "test the API connection")
	c.Flags().StringVar(&siteID, "site", "", "site ID to fetch for the connection test")

	return c
}
