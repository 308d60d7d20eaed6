package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/switchboard/internal/backend"
	"github.com/zulandar/switchboard/internal/db"
)

func newTicketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Inspect support tickets",
	}

	cmd.AddCommand(newTicketListCmd())
	cmd.AddCommand(newTicketShowCmd())
	return cmd
}

func openStore(configPath string) (*backend.Store, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	return backend.NewStore(gormDB)
}

func newTicketListCmd() *cobra.Command {
	var (
		configPath string
		status     string
		serial     string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(configPath)
			if err != nil {
				return err
			}

			tickets, err := store.ListTickets(cmd.Context(), backend.ListFilters{
				Status:       status,
				SerialNumber: serial,
				Limit:        limit,
			})
			if err != nil {
				return err
			}

			if len(tickets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tickets found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSERIAL\tTYPE\tSTATUS\tCREATED\tPROBLEM")
			for _, t := range tickets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.SerialNumber, t.DeviceType, t.Status,
					t.CreatedAt.Format("2006-01-02 15:04"), truncate(t.ProblemDescription, 48))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&serial, "serial", "", "filter by serial number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum tickets to show")
	return cmd
}

func newTicketShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show one ticket in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(configPath)
			if err != nil {
				return err
			}

			ticket, err := store.FindTicket(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ticket %s\n", ticket.ID)
			fmt.Fprintf(out, "  Serial number: %s\n", ticket.SerialNumber)
			fmt.Fprintf(out, "  Device type:   %s\n", ticket.DeviceType)
			fmt.Fprintf(out, "  Status:        %s\n", ticket.Status)
			fmt.Fprintf(out, "  Created:       %s\n", ticket.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  Problem:       %s\n", ticket.ProblemDescription)
			if ticket.Device != nil {
				fmt.Fprintf(out, "  Device:        %s (%s)\n", ticket.Device.Name, ticket.Device.Location)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	return cmd
}

// truncate shortens s for table display.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
