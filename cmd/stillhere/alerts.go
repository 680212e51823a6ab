package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/Amund211/stillhere/internal/strutils"
	"github.com/spf13/cobra"
)

func newAlertsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "alerts <user-id>",
		Short: "List the most recent missed check-in alerts for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strutils.NormalizeUserID(args[0])
			if err != nil {
				return err
			}

			svc, err := newServices(cmd.Context(), "alerts")
			if err != nil {
				return err
			}
			defer svc.close()

			alerts, err := svc.ledger.ListAlerts(svc.ctx, userID, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tSENT AT\tCONTACTS")
			for _, alert := range alerts {
				contacts := make([]string, 0, len(alert.NotifiedContacts))
				for _, contact := range alert.NotifiedContacts {
					contacts = append(contacts, fmt.Sprintf("%s <%s>", contact.Name, contact.Address))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", alert.LocalDate, alert.SentAt.UTC().Format("2006-01-02 15:04 MST"), strings.Join(contacts, ", "))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 30, "maximum number of alerts to list")

	return cmd
}
