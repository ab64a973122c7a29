package domain

// DiffLineKind classifies one line of a diff hunk.
type DiffLineKind int

const (
	LineContext DiffLineKind = iota
	LineAddition
	LineDeletion
)

// IntralineSegment marks a run of characters within a line that differs
// from its counterpart on the other side of the hunk.
type IntralineSegment struct {
	Start   int // byte offset into Content
	End     int // exclusive
	Changed bool
}

// DiffLine is one typed line of a hunk. Content excludes the leading
// '+'/'-'/' ' marker and the trailing newline.
type DiffLine struct {
	Kind      DiffLineKind
	Content   string
	NoEOL     bool               // line is file-final and lacks a trailing newline
	Intraline []IntralineSegment // optional word-level annotation
}

// DiffHunk is a contiguous block of a diff sharing one @@ header.
// Hunks are produced fresh by each diff request and never cached: a stale
// hunk applied against a changed file fails rather than corrupting it.
type DiffHunk struct {
	FilePath string
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Header   string // trailing section heading after the second @@, may be empty
	Lines    []DiffLine
}

// FileDiff is all hunks for one file, plus the file-level header lines
// needed to rebuild an applicable patch ("diff --git", "---", "+++", ...).
type FileDiff struct {
	Path        string
	OldPath     string // differs from Path on renames
	IsNew       bool
	IsDeleted   bool
	HeaderLines []string
	Hunks       []DiffHunk
}
