package main

import (
	"fmt"

	"github.com/Amund211/stillhere/internal/domain"
	"github.com/spf13/cobra"
)

func newCheckInCmd() *cobra.Command {
	var methodFlag string

	cmd := &cobra.Command{
		Use:   "checkin <user-id>",
		Short: "Record a check-in for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, err := domain.ParseCheckInMethod(methodFlag)
			if err != nil {
				return err
			}

			svc, err := newServices(cmd.Context(), "checkin")
			if err != nil {
				return err
			}
			defer svc.close()

			event, alreadyCheckedIn, err := svc.recordCheckIn(svc.ctx, args[0], method)
			if err != nil {
				return err
			}
			if alreadyCheckedIn {
				fmt.Fprintln(cmd.OutOrStdout(), "Already checked in today")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Checked in at %s (%s)\n", event.OccurredAt.Format("2006-01-02 15:04:05 MST"), event.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&methodFlag, "method", string(domain.CheckInMethodManual), "check-in method: manual, api, sms or automation")

	return cmd
}

func newStreakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "streak <user-id>",
		Short: "Print the number of consecutive days a user has checked in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServices(cmd.Context(), "streak")
			if err != nil {
				return err
			}
			defer svc.close()

			streak, err := svc.getStreak(svc.ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), streak)
			return nil
		},
	}
}
