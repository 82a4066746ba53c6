package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/services/recurring"
)

func newRecurringCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring expenses",
	}
	cmd.AddCommand(newRecurringGenerateCommand())
	return cmd
}

func newRecurringGenerateCommand() *cobra.Command {
	var asOf, companyFlag string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create the expenses of every recurring template due by --as-of",
		RunE: func(cmd *cobra.Command, args []string) error {
			date := calendar.Today()
			if asOf != "" {
				d, err := calendar.ParseDay(asOf)
				if err != nil {
					return err
				}
				date = d
			}
			var companyID *uuid.UUID
			if companyFlag != "" {
				id, err := uuid.Parse(companyFlag)
				if err != nil {
					return fmt.Errorf("parsing --company: %w", err)
				}
				companyID = &id
			}

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			res, err := recurring.NewRecurringService(e.db, e.log).GenerateDue(cmd.Context(), companyID, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "templates: %d, created: %d, skipped: %d\n", res.Templates, res.Created, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "generation date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&companyFlag, "company", "", "limit to one company ID")
	return cmd
}
