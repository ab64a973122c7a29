package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Reverse the most recent recorded operation",
	Long: `Execute the inverse command of the most recent operation in the
journal that has not already been undone. Destructive operations such
as discard are never recorded and cannot be undone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		ctx := cmd.Context()

		if s.journal == nil {
			return fmt.Errorf("operation journal unavailable; nothing to undo")
		}

		entries, err := s.journal.Recent(200)
		if err != nil {
			return err
		}

		// Walk newest first, skipping operations already undone. An
		// operation that was undone and then redone is undoable again.
		undone := map[string]bool{}
		for _, e := range entries {
			switch e.Action {
			case "undo":
				undone[e.GUID] = true
			case "record", "redo":
				if undone[e.GUID] {
					continue
				}
				if len(e.Inverse) == 0 {
					return fmt.Errorf("operation %q cannot be undone", e.Description)
				}
				if _, err := s.runner.Run(ctx, s.path, e.Inverse...); err != nil {
					return fmt.Errorf("undo failed: %w", err)
				}
				op := domain.GitOperation{
					ID:          e.GUID,
					Type:        e.Type,
					Description: e.Description,
					Inverse:     e.Inverse,
					Timestamp:   time.Now(),
				}
				if err := s.journal.Append(op, "undo"); err != nil {
					fmt.Printf("Warning: journal update failed: %v\n", err)
				}
				fmt.Printf("Undid %s\n", e.Description)
				return s.orch.Refresh(ctx)
			}
		}
		return domain.ErrNothingToUndo
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Re-execute the most recently undone operation",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		op, err := s.orch.Redo(cmd.Context())
		if err != nil {
			if errors.Is(err, domain.ErrNothingToRedo) {
				return fmt.Errorf("nothing to redo in this session")
			}
			return err
		}
		fmt.Printf("Redid %s\n", op.Description)
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the operation journal for this repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		if s.journal == nil {
			return fmt.Errorf("operation journal unavailable")
		}

		entries, err := s.journal.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No recorded operations.")
			return nil
		}

		for _, e := range entries {
			line := fmt.Sprintf("%s  %-6s %-14s %s",
				e.RecordedAt.Format("2006-01-02 15:04:05"), e.Action, e.Type, e.Description)
			if len(e.Inverse) > 0 {
				line += "  (inverse: git " + strings.Join(e.Inverse, " ") + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")

	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(redoCmd)
	rootCmd.AddCommand(historyCmd)
}
