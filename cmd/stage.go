package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	stageHunk int
	stageLine int
)

var stageCmd = &cobra.Command{
	Use:   "stage <file> [file...]",
	Short: "Stage files, or a single hunk or line of one file",
	Long: `Stage whole files into the index. With --hunk the file's unstaged diff
is re-read and only the selected hunk is staged; adding --line narrows
the selection to a single changed line within that hunk. Hunk and line
indexes are the ones printed by 'gitdeck diff'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		ctx := cmd.Context()

		if stageHunk < 0 && stageLine >= 0 {
			return fmt.Errorf("--line requires --hunk")
		}
		if stageHunk >= 0 {
			if len(args) != 1 {
				return fmt.Errorf("--hunk takes exactly one file")
			}
			if stageLine >= 0 {
				return s.orch.StageLine(ctx, args[0], stageHunk, stageLine)
			}
			return s.orch.StageHunk(ctx, args[0], stageHunk)
		}
		return s.orch.StageFiles(ctx, args)
	},
}

var (
	unstageHunk int
	unstageLine int
)

var unstageCmd = &cobra.Command{
	Use:   "unstage <file> [file...]",
	Short: "Remove files, or a single hunk or line, from the index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		ctx := cmd.Context()

		if unstageHunk < 0 && unstageLine >= 0 {
			return fmt.Errorf("--line requires --hunk")
		}
		if unstageHunk >= 0 {
			if len(args) != 1 {
				return fmt.Errorf("--hunk takes exactly one file")
			}
			if unstageLine >= 0 {
				return s.orch.UnstageLine(ctx, args[0], unstageHunk, unstageLine)
			}
			return s.orch.UnstageHunk(ctx, args[0], unstageHunk)
		}
		return s.orch.UnstageFiles(ctx, args)
	},
}

var (
	discardHunk   int
	discardLine   int
	discardStaged bool
)

var discardCmd = &cobra.Command{
	Use:   "discard <file> [file...]",
	Short: "Throw away worktree changes to files, or a single hunk or line",
	Long: `Discard modifications from the working tree. This is destructive and
cannot be undone. With --staged the file is unstaged first and then
discarded, removing the change entirely.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		ctx := cmd.Context()

		if discardStaged {
			if len(args) != 1 {
				return fmt.Errorf("--staged takes exactly one file")
			}
			return s.orch.UnstageAndDiscardFile(ctx, args[0])
		}
		if discardHunk < 0 && discardLine >= 0 {
			return fmt.Errorf("--line requires --hunk")
		}
		if discardHunk >= 0 {
			if len(args) != 1 {
				return fmt.Errorf("--hunk takes exactly one file")
			}
			if discardLine >= 0 {
				return s.orch.DiscardLine(ctx, args[0], discardHunk, discardLine)
			}
			return s.orch.DiscardHunk(ctx, args[0], discardHunk)
		}
		return s.orch.DiscardFiles(ctx, args)
	},
}

func init() {
	stageCmd.Flags().IntVar(&stageHunk, "hunk", -1, "stage only this hunk index")
	stageCmd.Flags().IntVar(&stageLine, "line", -1, "stage only this line index within --hunk")
	unstageCmd.Flags().IntVar(&unstageHunk, "hunk", -1, "unstage only this hunk index")
	unstageCmd.Flags().IntVar(&unstageLine, "line", -1, "unstage only this line index within --hunk")
	discardCmd.Flags().IntVar(&discardHunk, "hunk", -1, "discard only this hunk index")
	discardCmd.Flags().IntVar(&discardLine, "line", -1, "discard only this line index within --hunk")
	discardCmd.Flags().BoolVar(&discardStaged, "staged", false, "unstage the file first, then discard it")

	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(unstageCmd)
	rootCmd.AddCommand(discardCmd)
}
