package main

import (
	"fmt"
	"log/slog"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/cli"
	"github.com/sc4plugins/custom-budget-departments/internal/engine"
	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <city>",
		Short: "Show the saved department registry of a city",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
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

	manager := engine.NewManager(algorithm.NewFactory(cfg.FactorEncoding), slog.Default())
	if err := manager.Load(store.Segment(ctx, city.ID)); err != nil {
		return fmt.Errorf("failed to load registry of %q: %w", city.Name, err)
	}

	registry := manager.Registry()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s (%s)", city.Name, city.ID)))
	fmt.Fprintf(out, "%d departments, %d line items, %d months simulated\n\n",
		registry.Len(), registry.LineCount(), city.Months)
	fmt.Fprintln(out, cli.RenderRegistry(registry, cli.NewMoneyFormatter(cfg.Currency, cfg.CurrencySymbol)))
	return nil
}
