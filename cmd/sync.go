package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/gitdeck/internal/repo/application"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [remote]",
	Short: "Download refs from a remote (all remotes if omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		remote := ""
		if len(args) == 1 {
			remote = args[0]
		}
		return s.orch.Fetch(cmd.Context(), remote)
	},
}

var pullRebase bool

var pullCmd = &cobra.Command{
	Use:   "pull [remote]",
	Short: "Pull from a remote, auto-stashing local changes",
	Long: `Pull from the remote. If the working tree is dirty the changes are
stashed first and popped back afterwards; a pop that conflicts leaves
the changes applied with conflict markers and keeps the stash entry.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		opts := application.PullOptions{Rebase: pullRebase}
		if len(args) == 1 {
			opts.Remote = args[0]
		}

		result, err := s.orch.PullWithAutoStash(cmd.Context(), opts)
		if result.DidStash {
			switch {
			case result.StashConflict:
				fmt.Println("Local changes restored with conflicts; resolve them and drop the kept stash entry.")
			case result.StashApplied:
				fmt.Println("Local changes stashed and restored.")
			default:
				fmt.Println("Local changes remain stashed; run 'gitdeck stash pop' to restore them.")
			}
		}
		return err
	},
}

var pushCmd = &cobra.Command{
	Use:   "push [remote]",
	Short: "Push the current branch",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		opts := application.PushOptions{
			SetUpstream: pushSetUpstream,
			Force:       pushForce,
		}
		if len(args) == 1 {
			opts.Remote = args[0]
		}
		return s.orch.Push(cmd.Context(), opts)
	},
}

var (
	pushSetUpstream bool
	pushForce       bool
)

var stashCmd = &cobra.Command{
	Use:   "stash",
	Short: "Manage stash entries",
}

var (
	stashMessage   string
	stashUntracked bool
)

var stashSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Stash the working tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return s.orch.StashSave(cmd.Context(), stashMessage, stashUntracked)
	},
}

var stashPopCmd = &cobra.Command{
	Use:   "pop [index]",
	Short: "Apply and drop a stash entry (default newest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := stashIndexArg(args)
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return s.orch.StashPop(cmd.Context(), index)
	},
}

var stashApplyCmd = &cobra.Command{
	Use:   "apply [index]",
	Short: "Apply a stash entry, keeping it in the list",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := stashIndexArg(args)
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return s.orch.StashApply(cmd.Context(), index)
	},
}

var stashDropCmd = &cobra.Command{
	Use:   "drop [index]",
	Short: "Delete a stash entry",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := stashIndexArg(args)
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()
		return s.orch.StashDrop(cmd.Context(), index)
	},
}

func stashIndexArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	index, err := strconv.Atoi(args[0])
	if err != nil || index < 0 {
		return 0, fmt.Errorf("stash index must be a non-negative integer")
	}
	return index, nil
}

func init() {
	pullCmd.Flags().BoolVar(&pullRebase, "rebase", false, "rebase instead of merging")
	pushCmd.Flags().BoolVarP(&pushSetUpstream, "set-upstream", "u", false, "set the upstream for the current branch")
	pushCmd.Flags().BoolVar(&pushForce, "force", false, "force push (with lease)")
	stashSaveCmd.Flags().StringVarP(&stashMessage, "message", "m", "", "stash message")
	stashSaveCmd.Flags().BoolVarP(&stashUntracked, "include-untracked", "u", false, "include untracked files")

	stashCmd.AddCommand(stashSaveCmd)
	stashCmd.AddCommand(stashPopCmd)
	stashCmd.AddCommand(stashApplyCmd)
	stashCmd.AddCommand(stashDropCmd)

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(stashCmd)
}
