package masterplan

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// SectionChange describes how one section changed between two revisions.
type SectionChange struct {
	Key   SectionKey
	Patch string
}

// Diff compares two documents section by section and returns the changed
// sections with unified patch text. An empty result means the revision was a
// no-op, which the workflow surfaces as a no-change warning.
func Diff(prev, next *Document) []SectionChange {
	if prev == nil || next == nil {
		return nil
	}
	dmp := diffmatchpatch.New()
	var changes []SectionChange
	for _, key := range SectionOrder {
		before := prev.Sections[key]
		after := next.Sections[key]
		if before == after {
			continue
		}
		patches := dmp.PatchMake(before, after)
		changes = append(changes, SectionChange{
			Key:   key,
			Patch: dmp.PatchToText(patches),
		})
	}
	if prev.AppName != next.AppName {
		patches := dmp.PatchMake(prev.AppName, next.AppName)
		changes = append(changes, SectionChange{
			Key:   "app_name",
			Patch: dmp.PatchToText(patches),
		})
	}
	return changes
}
