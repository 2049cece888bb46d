package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	adminToken string
	Version    = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "contactctl",
		Short:         "contactctl - operate a contactd server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "contactd server URL")
	rootCmd.PersistentFlags().StringVar(&adminToken, "admin-token", os.Getenv("CONTACTD_ADMIN_TOKEN"), "Admin bearer token")

	rootCmd.AddCommand(
		submitCmd(),
		deliveriesCmd(),
		healthCmd(),
		versionCmd(),
	)
	return rootCmd
}

func submitCmd() *cobra.Command {
	var form contactForm
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Post a contact form submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, status, err := newClient().submit(cmd.Context(), form)
			if err != nil {
				return err
			}
			out, _ := json.Marshal(res)
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", status, out)
			if !res.Success {
				return fmt.Errorf("submission refused: %s", res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Reply-to email address")
	cmd.Flags().StringVarP(&form.Message, "message", "m", "", "Message body")
	return cmd
}

func deliveriesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "deliveries",
		Aliases: []string{"ls"},
		Short:   "List recent delivery attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if adminToken == "" {
				return fmt.Errorf("--admin-token is required")
			}
			rows, err := newClient().deliveries(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWHEN\tOUTCOME\tREQUEST\tMESSAGE ID")
			for _, d := range rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", d.ID, d.CreatedAt.Format(time.RFC3339), d.Outcome, d.RequestID, d.MessageID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of rows")
	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newClient().health(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status:           %s\n", h.Status)
			fmt.Fprintf(out, "Mail configured:  %v\n", h.MailConfigured)
			fmt.Fprintf(out, "Rate limit keys:  %d\n", h.RateLimitKeys)
			if len(h.Issues) > 0 {
				fmt.Fprintf(out, "Issues:           %s\n", strings.Join(h.Issues, "; "))
			}
			if !h.Healthy {
				return fmt.Errorf("server unhealthy")
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "contactctl version %s\n", Version)
		},
	}
}
