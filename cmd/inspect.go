package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/gitdeck/internal/repo/domain"
	"github.com/zjrosen/gitdeck/internal/repo/patch"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show staged, unstaged and untracked files",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		repoCtx, err := s.orch.Active()
		if err != nil {
			return err
		}

		fmt.Printf("On branch %s\n", repoCtx.CurrentBranch)
		if repoCtx.Status.IsClean() {
			fmt.Println("Working tree clean")
			return nil
		}

		printFileSection("Staged", repoCtx.Status.Staged)
		printFileSection("Unstaged", repoCtx.Status.Unstaged)
		if len(repoCtx.Status.Untracked) > 0 {
			fmt.Println("Untracked:")
			for _, path := range repoCtx.Status.Untracked {
				fmt.Printf("  %s\n", path)
			}
		}
		return nil
	},
}

func printFileSection(title string, files []domain.StatusFile) {
	if len(files) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, f := range files {
		fmt.Printf("  %s %s\n", f.Status, f.Path)
	}
}

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List local branches with upstream tracking state",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		branches, err := s.orch.Branches(cmd.Context())
		if err != nil {
			return err
		}

		for _, b := range branches {
			marker := " "
			if b.IsCurrent {
				marker = "*"
			}
			line := fmt.Sprintf("%s %s", marker, b.Name)
			if b.Upstream != "" {
				var track []string
				if b.Ahead > 0 {
					track = append(track, fmt.Sprintf("ahead %d", b.Ahead))
				}
				if b.Behind > 0 {
					track = append(track, fmt.Sprintf("behind %d", b.Behind))
				}
				line += " -> " + b.Upstream
				if len(track) > 0 {
					line += " [" + strings.Join(track, ", ") + "]"
				}
			}
			fmt.Println(line)
		}
		return nil
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		tags, err := s.orch.Tags(cmd.Context())
		if err != nil {
			return err
		}
		for _, t := range tags {
			fmt.Printf("%s  %s\n", t.Name, t.Target)
		}
		return nil
	},
}

var remotesCmd = &cobra.Command{
	Use:   "remotes",
	Short: "List remotes",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		remotes, err := s.orch.Remotes(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range remotes {
			fmt.Printf("%s  %s\n", r.Name, r.FetchURL)
		}
		return nil
	},
}

var stashesCmd = &cobra.Command{
	Use:   "stashes",
	Short: "List stash entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		stashes, err := s.orch.Stashes(cmd.Context())
		if err != nil {
			return err
		}
		for _, st := range stashes {
			fmt.Printf("%s  %s  (%s)\n", st.Ref(), st.Message, st.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var diffStaged bool

var diffCmd = &cobra.Command{
	Use:   "diff [file]",
	Short: "Show parsed hunks for a file or the whole tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.close()

		file := ""
		if len(args) == 1 {
			file = args[0]
		}

		diffs, err := s.orch.Diff(cmd.Context(), file, diffStaged)
		if err != nil {
			return err
		}

		for _, fd := range diffs {
			fmt.Printf("%s", renderFileDiff(fd))
		}
		return nil
	},
}

// renderFileDiff prints a file's hunks with hunk indexes so the stage
// commands can address them.
func renderFileDiff(fd domain.FileDiff) string {
	var sb strings.Builder
	switch {
	case fd.IsNew:
		fmt.Fprintf(&sb, "%s (new file)\n", fd.Path)
	case fd.IsDeleted:
		fmt.Fprintf(&sb, "%s (deleted)\n", fd.Path)
	case fd.OldPath != "" && fd.OldPath != fd.Path:
		fmt.Fprintf(&sb, "%s (renamed from %s)\n", fd.Path, fd.OldPath)
	default:
		fmt.Fprintf(&sb, "%s\n", fd.Path)
	}

	for i := range fd.Hunks {
		patch.AnnotateIntraline(&fd.Hunks[i])
		hunk := fd.Hunks[i]
		fmt.Fprintf(&sb, "  hunk %d: @@ -%d,%d +%d,%d @@ %s\n",
			i, hunk.OldStart, hunk.OldLines, hunk.NewStart, hunk.NewLines, hunk.Header)
		for j, line := range hunk.Lines {
			fmt.Fprintf(&sb, "    %2d %s%s\n", j, lineMarker(line.Kind), line.Content)
			if marks := intralineMarks(line); marks != "" {
				fmt.Fprintf(&sb, "        %s\n", marks)
			}
		}
	}
	return sb.String()
}

// intralineMarks underlines the changed spans of a paired add/delete
// line with carets.
func intralineMarks(line domain.DiffLine) string {
	if len(line.Intraline) == 0 {
		return ""
	}
	marks := make([]byte, len(line.Content))
	for i := range marks {
		marks[i] = ' '
	}
	any := false
	for _, seg := range line.Intraline {
		if !seg.Changed {
			continue
		}
		for i := seg.Start; i < seg.End && i < len(marks); i++ {
			marks[i] = '^'
			any = true
		}
	}
	if !any {
		return ""
	}
	return string(marks)
}

func lineMarker(kind domain.DiffLineKind) string {
	switch kind {
	case domain.LineAddition:
		return "+"
	case domain.LineDeletion:
		return "-"
	default:
		return " "
	}
}

func init() {
	diffCmd.Flags().BoolVar(&diffStaged, "staged", false, "show the staged (index) diff instead of the worktree diff")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(branchesCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(remotesCmd)
	rootCmd.AddCommand(stashesCmd)
	rootCmd.AddCommand(diffCmd)
}
