// ABOUTME: Positional line diff between two content snapshots
// ABOUTME: Computes ordered change sets and replays them for reconstruction

package diff

import (
	"fmt"
	"sort"
	"strings"
)

// Compute returns the ordered change sets that transform oldContent into
// newContent. Both contents are split into lines and compared position by
// position.
//
// Known limitation: this is a positional diff, not a content-aligned (LCS)
// diff. An insertion or deletion in the middle of the content shows up as a
// cascade of modify entries for every following line rather than a single
// insert or delete. Kept deliberately simple; the change sets still replay
// exactly.
func Compute(oldContent, newContent string) []ChangeSet {
	oldLines := strings.Split(oldContent, "\n")
	newLines := strings.Split(newContent, "\n")

	var changes []ChangeSet
	offset := 0

	max := len(oldLines)
	if len(newLines) > max {
		max = len(newLines)
	}

	for i := 0; i < max; i++ {
		inOld := i < len(oldLines)
		inNew := i < len(newLines)

		switch {
		case inOld && inNew:
			if oldLines[i] != newLines[i] {
				changes = append(changes, ChangeSet{
					Type:       ChangeModify,
					Path:       linePath(i + 1),
					OldValue:   oldLines[i],
					NewValue:   newLines[i],
					LineNumber: i + 1,
					CharOffset: offset,
				})
			}
		case inOld:
			changes = append(changes, ChangeSet{
				Type:       ChangeDelete,
				Path:       linePath(i + 1),
				OldValue:   oldLines[i],
				LineNumber: i + 1,
				CharOffset: offset,
			})
		default:
			changes = append(changes, ChangeSet{
				Type:       ChangeInsert,
				Path:       linePath(i + 1),
				NewValue:   newLines[i],
				LineNumber: i + 1,
				CharOffset: offset,
			})
		}

		if inNew {
			offset += len(newLines[i]) + 1
		}
	}

	return changes
}

// FullInsert returns the single synthetic change set used for a document's
// first commit, covering the entire content.
func FullInsert(content string) []ChangeSet {
	return []ChangeSet{
		{
			Type:     ChangeInsert,
			Path:     PathFullContent,
			NewValue: content,
		},
	}
}

// Apply replays an ordered change set against oldContent and returns the
// reconstructed content. The change sets must have been produced by Compute
// or FullInsert against that same oldContent.
func Apply(oldContent string, changes []ChangeSet) (string, error) {
	if len(changes) == 1 && changes[0].Path == PathFullContent {
		if changes[0].Type != ChangeInsert {
			return "", fmt.Errorf("diff: full-content change must be an insert, got %s", changes[0].Type)
		}
		return changes[0].NewValue, nil
	}

	lines := strings.Split(oldContent, "\n")
	var deletions []int

	for _, c := range changes {
		idx := c.LineNumber - 1
		switch c.Type {
		case ChangeModify:
			if idx < 0 || idx >= len(lines) {
				return "", fmt.Errorf("diff: modify at line %d out of range", c.LineNumber)
			}
			lines[idx] = c.NewValue
		case ChangeInsert:
			if idx != len(lines) {
				return "", fmt.Errorf("diff: insert at line %d does not extend content of %d lines", c.LineNumber, len(lines))
			}
			lines = append(lines, c.NewValue)
		case ChangeDelete:
			if idx < 0 || idx >= len(lines) {
				return "", fmt.Errorf("diff: delete at line %d out of range", c.LineNumber)
			}
			deletions = append(deletions, idx)
		default:
			return "", fmt.Errorf("diff: unknown change type %q", c.Type)
		}
	}

	// Positional deletes always name a trailing run; removing from the
	// highest index down keeps earlier positions stable.
	sort.Sort(sort.Reverse(sort.IntSlice(deletions)))
	for _, idx := range deletions {
		if idx >= len(lines) {
			return "", fmt.Errorf("diff: delete at line %d out of range after edits", idx+1)
		}
		lines = append(lines[:idx], lines[idx+1:]...)
	}

	return strings.Join(lines, "\n"), nil
}

// ComputeStats aggregates change counts over an ordered change set
func ComputeStats(changes []ChangeSet) Stats {
	var s Stats
	for _, c := range changes {
		switch c.Type {
		case ChangeInsert:
			s.Additions++
		case ChangeDelete:
			s.Deletions++
		case ChangeModify:
			s.Modifications++
		}
	}
	s.Total = s.Additions + s.Deletions + s.Modifications
	return s
}

func linePath(n int) string {
	return fmt.Sprintf("line:%d", n)
}
