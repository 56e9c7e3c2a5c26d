package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/alerting"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Inspect and acknowledge alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts with their urgency",
	RunE:  runAlertsList,
}

var alertsAckCmd = &cobra.Command{
	Use:   "ack <id>",
	Short: "Acknowledge an alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsAck,
}

var alertsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show alert counts for a user",
	RunE:  runAlertsSummary,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsAckCmd)
	alertsCmd.AddCommand(alertsSummaryCmd)

	alertsListCmd.Flags().StringP("user", "u", "", "Filter by user id")
	alertsListCmd.Flags().StringP("type", "t", "", "Filter by alert type (document_expiry, maintenance_due)")
	alertsListCmd.Flags().Bool("unacknowledged", false, "Only show unacknowledged alerts")
	alertsListCmd.Flags().String("due-by", "", "Only show alerts whose alert date is on or before this date (YYYY-MM-DD)")
	alertsListCmd.Flags().Int("limit", 0, "Maximum number of alerts")

	alertsSummaryCmd.Flags().StringP("user", "u", "", "User id")
	_ = alertsSummaryCmd.MarkFlagRequired("user")
}

func runAlertsList(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")
	alertType, _ := cmd.Flags().GetString("type")
	unacked, _ := cmd.Flags().GetBool("unacknowledged")
	dueBy, _ := cmd.Flags().GetString("due-by")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := model.AlertFilter{UserID: user, Unacknowledged: unacked, Limit: limit}
	if alertType != "" {
		filter.AlertType = model.AlertType(alertType)
		if !filter.AlertType.Valid() {
			return fmt.Errorf("unknown alert type %q", alertType)
		}
	}
	if dueBy != "" {
		d, err := model.ParseDate(dueBy)
		if err != nil {
			return fmt.Errorf("invalid --due-by: %w", err)
		}
		filter.DueBy = d
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	views, err := alerting.NewInbox(a.store, a.logger).List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "No alerts.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tUSER\tTYPE\tALERT DATE\tTARGET\tDAYS\tURGENCY\tTITLE\n")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			v.ID, v.UserID, v.AlertType,
			model.FormatDate(v.AlertDate), model.FormatDate(v.TargetDate),
			v.DaysUntil, v.Urgency, v.Title,
		)
	}
	return w.Flush()
}

func runAlertsAck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	alert, err := alerting.NewInbox(a.store, a.logger).Acknowledge(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Acknowledged %s (%s) at %s\n",
		alert.ID, alert.Title, alert.AcknowledgedAt.Format("2006-01-02 15:04"))
	return nil
}

func runAlertsSummary(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := alerting.NewInbox(a.store, a.logger).Summary(cmd.Context(), user)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User:           %s\n", s.UserID)
	fmt.Fprintf(out, "Total:          %d\n", s.Total)
	fmt.Fprintf(out, "Unacknowledged: %d\n", s.Unacknowledged)
	fmt.Fprintf(out, "Critical:       %d\n", s.Critical)
	return nil
}
