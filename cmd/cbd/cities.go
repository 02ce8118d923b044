package main

import (
	"fmt"

	"github.com/sc4plugins/custom-budget-departments/internal/cli"
	"github.com/spf13/cobra"
)

func citiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cities",
		Short: "Manage saved cities",
	}

	cmd.AddCommand(citiesListCmd())
	cmd.AddCommand(citiesDeleteCmd())

	return cmd
}

func citiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved cities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cities, err := store.ListCities(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(cities) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("No saved cities."))
				return nil
			}

			fmt.Fprintln(out, cli.TableHeaderStyle.Render(fmt.Sprintf("%-26s %-24s %8s  %s", "ID", "Name", "Months", "Updated")))
			for _, c := range cities {
				fmt.Fprintf(out, "%-26s %-24s %8d  %s\n", c.ID, c.Name, c.Months, c.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func citiesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <city>",
		Short: "Delete a city and its saved registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			city, err := store.FindCityByName(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to find city %q: %w", args[0], err)
			}
			if err := store.DeleteCity(ctx, city.ID); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s (%s)", city.Name, city.ID)))
			return nil
		},
	}
}
