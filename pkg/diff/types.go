// ABOUTME: Change-set data model for the diff engine
// ABOUTME: Defines change types, line locators and change statistics

package diff

// ChangeType identifies the kind of edit a ChangeSet describes
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeModify ChangeType = "modify"
	ChangeDelete ChangeType = "delete"
)

// PathFullContent is the locator used for the synthetic insert that covers
// a document's entire content on its first commit.
const PathFullContent = "content"

// ChangeSet is one atomic edit relative to the parent version's content.
// Applying a commit's change sets in order to the parent's content must
// reproduce the commit's content.
type ChangeSet struct {
	Type       ChangeType
	Path       string // line locator, e.g. "line:3"
	OldValue   string // absent for insert
	NewValue   string // absent for delete
	LineNumber int    // 1-based line position, 0 for the full-content insert
	CharOffset int    // offset of the line start in the new content
}

// Stats aggregates change counts over a change set
type Stats struct {
	Additions     int
	Deletions     int
	Modifications int
	Total         int
}
