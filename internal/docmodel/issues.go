package docmodel

// IssueKind classifies a recoverable per-document problem.
type IssueKind string

const (
	IssueMissingFrontmatter IssueKind = "missing_frontmatter"
	IssueInvalidFrontmatter IssueKind = "invalid_frontmatter"
	IssueInvalidDateCreated IssueKind = "invalid_date_created"
	IssueInvalidDateUpdated IssueKind = "invalid_date_updated"
	// IssueDuplicateOutput marks a document whose output path is already
	// taken by an earlier one. The later document is left out.
	IssueDuplicateOutput IssueKind = "duplicate_output"
)

// Issue is a validation problem found while loading a document.
type Issue struct {
	Kind   IssueKind
	Detail string
}

// Excludes reports whether the issue keeps the document out of the build.
func (i Issue) Excludes() bool {
	switch i.Kind {
	case IssueMissingFrontmatter, IssueInvalidFrontmatter, IssueDuplicateOutput:
		return true
	}
	return false
}
