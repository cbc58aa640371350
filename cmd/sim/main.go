package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"bridge/internal/engine"
	"bridge/internal/engine/sim"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		seed     int64
		count    int
		rounds   int
		maxSteps int
	)

	cmd := &cobra.Command{
		Use:          "bridge-sim",
		Short:        "Play seeded random matches and check the engine invariants",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			return run(seed, count, rounds, maxSteps)
		},
	}

	f := cmd.Flags()
	f.Int64Var(&seed, "seed", 1, "first seed")
	f.IntVar(&count, "count", 20, "number of consecutive seeds to play")
	f.IntVar(&rounds, "rounds", 4, "deals per match")
	f.IntVar(&maxSteps, "max-steps", 400, "step limit per deal")
	return cmd
}

func run(seed int64, count, rounds, maxSteps int) error {
	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Playing %d matches", count))

	data := pterm.TableData{{"Seed", "Steps", "Passed out", "NS", "EW"}}
	var steps int
	for s := seed; s < seed+int64(count); s++ {
		spinner.UpdateText(fmt.Sprintf("Playing seed %d", s))
		report, err := sim.Run(s, rounds, maxSteps)
		if err != nil {
			spinner.Fail(fmt.Sprintf("seed %d failed", s))
			pterm.Error.Println(err.Error())
			return err
		}
		steps += report.Steps
		data = append(data, []string{
			strconv.FormatInt(report.Seed, 10),
			strconv.Itoa(report.Steps),
			strconv.Itoa(report.PassedOut),
			strconv.Itoa(report.Totals[engine.SideNS]),
			strconv.Itoa(report.Totals[engine.SideEW]),
		})
	}
	spinner.Success(fmt.Sprintf("%d matches, %d steps", count, steps))

	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Success.Printfln("all invariants held for seeds %d..%d", seed, seed+int64(count)-1)
	return nil
}
