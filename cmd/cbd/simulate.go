package main

import (
	"fmt"
	"log/slog"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/cli"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/scenario"
	"github.com/sc4plugins/custom-budget-departments/internal/storage"
	"github.com/spf13/cobra"
)

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Replay a building scenario through the budget engine",
		Long: `Replay the steps of a scenario file: buildings are placed and
demolished, months pass and the department registry is saved and loaded.

With --city the save and load steps use that city's record in the database,
so the registry can be inspected afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: runSimulate,
	}

	cmd.Flags().String("city", "", "City to save the registry under")
	cmd.Flags().String("encoding", "", "Factor encoding (rational, direct); overrides the config")
	cmd.Flags().Bool("no-progress", false, "Disable the month progress bar")

	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cityName, _ := cmd.Flags().GetString("city")
	encodingName, _ := cmd.Flags().GetString("encoding")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	s, err := scenario.LoadFile(args[0])
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Could not load scenario %s", args[0]), err)
	}

	encoding := cfg.FactorEncoding
	if encodingName != "" {
		if encoding, err = algorithm.ParseFactorEncoding(encodingName); err != nil {
			return err
		}
	}

	opts := scenario.Options{
		Logger:   slog.Default(),
		Encoding: encoding,
	}

	var (
		store  *storage.Store
		cityID string
	)
	if cityName != "" {
		if store, err = openStore(ctx); err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		city, err := store.OpenOrCreateCity(ctx, cityName)
		if err != nil {
			return fmt.Errorf("failed to open city %q: %w", cityName, err)
		}
		cityID = city.ID
		opts.Segment = store.Segment(ctx, city.ID)
	}

	var progress *cli.MonthProgress
	if months := s.Months(); months > 0 && !noProgress {
		progress = cli.NewMonthProgress(cmd.ErrOrStderr(), months)
		opts.OnMonth = progress.Tick
	}

	slog.Info("Replaying scenario", "name", s.Name, "steps", len(s.Steps), "encoding", string(encoding))

	result, err := scenario.Run(ctx, s, opts)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return fmt.Errorf("scenario failed: %w", err)
	}

	if store != nil && result.Months > 0 {
		if err := store.AddMonths(ctx, cityID, int64(result.Months)); err != nil {
			slog.Debug("Failed to record simulated months", "city", cityName, "error", err)
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(fmt.Sprintf("Could not record months for %s", cityName)))
		}
	}

	f := cli.NewMoneyFormatter(cfg.Currency, cfg.CurrencySymbol)
	title := s.Name
	if title == "" {
		title = args[0]
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(title))
	fmt.Fprint(out, cli.RenderBudget(cli.BudgetRows(result.City.Budget, result.Manager.Registry()), f))

	msg := fmt.Sprintf("%d months simulated, %d saves", result.Months, result.Saves)
	if cityID != "" {
		msg += fmt.Sprintf(" to city %s (%s)", cityName, cityID)
	}
	fmt.Fprintln(out, cli.FormatSuccess(msg))
	return nil
}
