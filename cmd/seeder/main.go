// Command seeder fills a batch with students and simulated rounds, for
// local development and load testing.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-club/internal/batch"
	"github.com/mauv0809/chess-club/internal/club"
	"github.com/mauv0809/chess-club/internal/config"
	"github.com/mauv0809/chess-club/internal/pairing"
	"github.com/mauv0809/chess-club/internal/roster"
	"github.com/spf13/cobra"
)

var (
	batchName   string
	numStudents int
	numRounds   int
	maxMatches  int
	seed        uint64
	archive     bool
)

var classes = []string{"6", "7", "8", "9", "10"}

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Seed a batch with students and played rounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return seedBatch(cmd.Context(), config.Load())
	},
}

func init() {
	rootCmd.Flags().StringVar(&batchName, "batch", "Seeded Batch", "Batch to create or extend")
	rootCmd.Flags().IntVar(&numStudents, "students", 20, "Students to add")
	rootCmd.Flags().IntVar(&numRounds, "rounds", 5, "Rounds to generate and score")
	rootCmd.Flags().IntVar(&maxMatches, "max", 2, "Maximum matches per student and round")
	rootCmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed for pairings and results")
	rootCmd.Flags().BoolVar(&archive, "archive", true, "Archive every round once scored")
}

func seedBatch(ctx context.Context, cfg config.Config) error {
	log.Info("Starting batch seeder...", "batch", batchName, "students", numStudents, "rounds", numRounds)
	registry := batch.NewRegistry(cfg)
	defer registry.Close()

	h, err := registry.Create(ctx, batchName)
	if err != nil {
		return err
	}

	rng := pairing.NewRand(seed)
	for i := 0; i < numStudents; i++ {
		s, err := h.Roster.AddStudent(ctx, roster.NewStudent{
			Name:  fmt.Sprintf("Seeded Student %d", i+1),
			Class: classes[rng.IntN(len(classes))],
			Roll:  fmt.Sprint(i + 1),
		})
		if err != nil {
			return fmt.Errorf("failed to add student: %w", err)
		}
		// Leave roughly one in ten unpaid so eligibility is exercised.
		if rng.IntN(10) > 0 {
			if _, err := h.Roster.TogglePaid(ctx, s.ID); err != nil {
				return err
			}
		}
	}
	log.Info("Added students", "count", numStudents)

	outcomes := []club.Outcome{club.OutcomeStudent1, club.OutcomeStudent2, club.OutcomeDraw}
	for round := 0; round < numRounds; round++ {
		matches, err := h.Ledger.GenerateRound(ctx, maxMatches, pairing.NewRand(rng.Uint64()))
		if err != nil {
			return fmt.Errorf("round %d: %w", round+1, err)
		}
		for _, m := range matches {
			if _, err := h.Ledger.RecordResult(ctx, m.ID, outcomes[rng.IntN(len(outcomes))]); err != nil {
				return fmt.Errorf("round %d: %w", round+1, err)
			}
		}
		if archive {
			if _, err := h.Ledger.ArchiveCompleted(ctx); err != nil {
				return err
			}
		}
		log.Info("Seeded round", "round", round+1, "matches", len(matches))
	}

	fixed, err := h.Ledger.Reconcile(ctx)
	if err != nil {
		return err
	}
	log.Info("Seeding finished", "batch", h.Key, "reconciled", fixed)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
}
