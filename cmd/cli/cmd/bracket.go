// Package cmd - Operator commands for the premium bracket table.
// These are the administrative back-door; they never run on the query path.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"social-insurance/core/bracket"
	"social-insurance/db"
	"social-insurance/internal/config"
)

var bracketCmd = &cobra.Command{
	Use:   "bracket",
	Short: "Premium bracket schedule management (operator only)",
}

var bracketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the full schedule ordered by standard remuneration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store db.BracketStore) error {
			rows, err := store.ListAll(ctx)
			if err != nil {
				return err
			}
			printBrackets(rows)
			return nil
		})
	},
}

var bracketGetCmd = &cobra.Command{
	Use:   "get <grade>",
	Short: "Show one bracket by grade",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store db.BracketStore) error {
			b, err := store.FindByGrade(ctx, args[0])
			if err != nil {
				return err
			}
			printBrackets([]bracket.PremiumBracket{*b})
			return nil
		})
	},
}

var bracketPensionCmd = &cobra.Command{
	Use:   "pension",
	Short: "List brackets with a positive pension contribution",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store db.BracketStore) error {
			rows, err := store.FindWithPositivePension(ctx)
			if err != nil {
				return err
			}
			printBrackets(rows)
			return nil
		})
	},
}

var bracketRangeCmd = &cobra.Command{
	Use:   "range <min-std-rem> <max-std-rem>",
	Short: "List brackets whose standard remuneration falls in a closed range",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lo, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("min-std-rem: %w", err)
		}
		hi, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("max-std-rem: %w", err)
		}
		return withStore(func(ctx context.Context, store db.BracketStore) error {
			rows, err := store.FindByStdRemRange(ctx, lo, hi)
			if err != nil {
				return err
			}
			printBrackets(rows)
			return nil
		})
	},
}

var (
	upsertStdRem       int
	upsertMinAmount    int
	upsertMaxAmount    int
	upsertHealthNoCare string
	upsertHealthCare   string
	upsertPension      string
)

var bracketUpsertCmd = &cobra.Command{
	Use:   "upsert <grade>",
	Short: "Insert or replace one bracket by grade",
	Long: `Insert a bracket, or replace the mutable columns of the existing
bracket with the same grade. The upsert is rejected if the resulting table
would violate an invariant (overlapping intervals, duplicate or
non-monotonic standard remuneration, care total below the no-care total).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		healthNoCare, err := decimal.NewFromString(upsertHealthNoCare)
		if err != nil {
			return fmt.Errorf("--health-no-care: %w", err)
		}
		healthCare, err := decimal.NewFromString(upsertHealthCare)
		if err != nil {
			return fmt.Errorf("--health-care: %w", err)
		}
		pension, err := decimal.NewFromString(upsertPension)
		if err != nil {
			return fmt.Errorf("--pension: %w", err)
		}

		b := &bracket.PremiumBracket{
			Grade:        args[0],
			StdRem:       upsertStdRem,
			MinAmount:    upsertMinAmount,
			MaxAmount:    upsertMaxAmount,
			HealthNoCare: healthNoCare,
			HealthCare:   healthCare,
			Pension:      pension,
		}

		return withStore(func(ctx context.Context, store db.BracketStore) error {
			saved, err := store.UpsertByGrade(ctx, b)
			if err != nil {
				return err
			}
			fmt.Printf("upserted grade %s\n", saved.Grade)
			return nil
		})
	},
}

var bracketDeleteCmd = &cobra.Command{
	Use:   "delete <grade>",
	Short: "Delete one bracket by grade",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store db.BracketStore) error {
			if err := store.DeleteByGrade(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted grade %s\n", args[0])
			return nil
		})
	},
}

var bracketImportCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Bulk upsert a schedule from CSV",
	Long: `Import a full bracket schedule from a CSV file with columns
grade, std_rem, min_amount, max_amount, health_no_care, health_care,
pension. The file is validated as one table before any row is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rows, err := bracket.ReadScheduleCSV(f)
		if err != nil {
			return fmt.Errorf("invalid schedule file: %w", err)
		}

		return withStore(func(ctx context.Context, store db.BracketStore) error {
			for i := range rows {
				if _, err := store.UpsertByGrade(ctx, &rows[i]); err != nil {
					return fmt.Errorf("grade %s: %w", rows[i].Grade, err)
				}
			}
			fmt.Printf("imported %d brackets\n", len(rows))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(bracketCmd)
	bracketCmd.AddCommand(bracketListCmd)
	bracketCmd.AddCommand(bracketGetCmd)
	bracketCmd.AddCommand(bracketPensionCmd)
	bracketCmd.AddCommand(bracketRangeCmd)
	bracketCmd.AddCommand(bracketUpsertCmd)
	bracketCmd.AddCommand(bracketDeleteCmd)
	bracketCmd.AddCommand(bracketImportCmd)

	bracketUpsertCmd.Flags().IntVar(&upsertStdRem, "std-rem", 0, "Standard remuneration in JPY [REQUIRED]")
	bracketUpsertCmd.Flags().IntVar(&upsertMinAmount, "min-amount", 0, "Interval lower bound, inclusive [REQUIRED]")
	bracketUpsertCmd.Flags().IntVar(&upsertMaxAmount, "max-amount", 0, "Interval upper bound, exclusive [REQUIRED]")
	bracketUpsertCmd.Flags().StringVar(&upsertHealthNoCare, "health-no-care", "", "Monthly health total without care [REQUIRED]")
	bracketUpsertCmd.Flags().StringVar(&upsertHealthCare, "health-care", "", "Monthly health total with care [REQUIRED]")
	bracketUpsertCmd.Flags().StringVar(&upsertPension, "pension", "", "Monthly pension total [REQUIRED]")

	_ = bracketUpsertCmd.MarkFlagRequired("std-rem")
	_ = bracketUpsertCmd.MarkFlagRequired("min-amount")
	_ = bracketUpsertCmd.MarkFlagRequired("max-amount")
	_ = bracketUpsertCmd.MarkFlagRequired("health-no-care")
	_ = bracketUpsertCmd.MarkFlagRequired("health-care")
	_ = bracketUpsertCmd.MarkFlagRequired("pension")
}

// withStore opens the configured store for the duration of one command
func withStore(fn func(ctx context.Context, store db.BracketStore) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := db.Open(ctx, config.Get())
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store)
}

func printBrackets(rows []bracket.PremiumBracket) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GRADE\tSTD_REM\tMIN_AMOUNT\tMAX_AMOUNT\tHEALTH_NO_CARE\tHEALTH_CARE\tPENSION")
	for _, b := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			b.Grade, b.StdRem, b.MinAmount, b.MaxAmount,
			b.HealthNoCare.StringFixed(2), b.HealthCare.StringFixed(2), b.Pension.StringFixed(2))
	}
	w.Flush()
}
