package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/gitdeck/internal/repo/application"
)

var (
	commitMessage string
	commitAmend   bool
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Create a commit from the current index",
	RunE: func(cmd *cobra.Command, args []string) error {
		if commitMessage == "" && !commitAmend {
			return fmt.Errorf("--message is required")
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		return s.orch.Commit(cmd.Context(), application.CommitOptions{
			Message: commitMessage,
			Amend:   commitAmend,
		})
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <ref>",
	Short: "Switch to a branch, tag or commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return s.orch.Checkout(cmd.Context(), args[0])
	},
}

var (
	branchDelete bool
	branchForce  bool
	branchStart  string
)

var branchCmd = &cobra.Command{
	Use:   "branch <name>",
	Short: "Create or delete a branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		if branchDelete {
			return s.orch.DeleteBranch(cmd.Context(), args[0], branchForce)
		}
		return s.orch.CreateBranch(cmd.Context(), args[0], branchStart)
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge <ref>",
	Short: "Merge a ref into the current branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return s.orch.Merge(cmd.Context(), args[0])
	},
}

var resetMode string

var resetCmd = &cobra.Command{
	Use:   "reset <ref>",
	Short: "Move HEAD to a ref",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := application.ResetMode(resetMode)
		switch mode {
		case application.ResetSoft, application.ResetMixed, application.ResetHard:
		default:
			return fmt.Errorf("--mode must be soft, mixed or hard")
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return s.orch.Reset(cmd.Context(), args[0], mode)
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert <commit>",
	Short: "Create a commit that undoes the given commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return s.orch.Revert(cmd.Context(), args[0])
	},
}

var rebaseCmd = &cobra.Command{
	Use:   "rebase <onto>",
	Short: "Rebase the current branch onto a ref",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return s.orch.Rebase(cmd.Context(), args[0])
	},
}

var cherryPickCmd = &cobra.Command{
	Use:   "cherry-pick <commit>",
	Short: "Apply a commit onto the current branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return s.orch.CherryPick(cmd.Context(), args[0])
	},
}

var (
	tagDelete bool
	tagTarget string
)

var tagCmd = &cobra.Command{
	Use:   "tag <name>",
	Short: "Create or delete a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		if tagDelete {
			return s.orch.DeleteTag(cmd.Context(), args[0])
		}
		return s.orch.CreateTag(cmd.Context(), args[0], tagTarget)
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
	commitCmd.Flags().BoolVar(&commitAmend, "amend", false, "amend the previous commit")
	branchCmd.Flags().BoolVarP(&branchDelete, "delete", "d", false, "delete the branch instead of creating it")
	branchCmd.Flags().BoolVarP(&branchForce, "force", "f", false, "force deletion of an unmerged branch")
	branchCmd.Flags().StringVar(&branchStart, "start-point", "", "commit to branch from (default HEAD)")
	resetCmd.Flags().StringVar(&resetMode, "mode", "mixed", "reset mode: soft, mixed or hard")
	tagCmd.Flags().BoolVarP(&tagDelete, "delete", "d", false, "delete the tag instead of creating it")
	tagCmd.Flags().StringVar(&tagTarget, "target", "", "commit to tag (default HEAD)")

	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(revertCmd)
	rootCmd.AddCommand(rebaseCmd)
	rootCmd.AddCommand(cherryPickCmd)
	rootCmd.AddCommand(tagCmd)
}
