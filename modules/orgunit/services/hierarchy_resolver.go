package services

import (
	"github.com/icddrb/eregistry/modules/orgunit/domain/types"
)

const (
	DefaultRootLevel = types.LevelUnion
	DefaultDepth     = 3
)

// HierarchyResolver rebuilds the union ownership tree from a flat, level-tagged
// record list. It runs one pass per level below the root; a record whose parent
// was not attached in the previous pass is dropped, never reported.
type HierarchyResolver struct {
	RootLevel int
	Depth     int
}

func NewHierarchyResolver(rootLevel int, depth int) HierarchyResolver {
	if rootLevel <= 0 {
		rootLevel = DefaultRootLevel
	}
	if depth <= 0 {
		depth = DefaultDepth
	}
	return HierarchyResolver{RootLevel: rootLevel, Depth: depth}
}

// ResolveHierarchy uses the 5/6/7 union layout.
func ResolveHierarchy(records []types.OrgRecord) types.HierarchyIndex {
	return NewHierarchyResolver(DefaultRootLevel, DefaultDepth).Resolve(records)
}

func (r HierarchyResolver) Resolve(records []types.OrgRecord) types.HierarchyIndex {
	index := types.NewHierarchyIndex(r.RootLevel)
	if len(records) == 0 || r.Depth <= 0 {
		return index
	}

	// owners maps the normalized id of every record attached at the previous
	// level to the id of the root bucket that owns it.
	owners := make(map[string]string)
	for _, rec := range records {
		if rec.Level != r.RootLevel {
			continue
		}
		key := types.NormalizeOrgID(rec.ID)
		if _, dup := owners[key]; dup {
			continue
		}
		if index.AddRoot(rec) {
			owners[key] = rec.ID
		}
	}

	for level := r.RootLevel + 1; level < r.RootLevel+r.Depth; level++ {
		next := make(map[string]string)
		for _, rec := range records {
			if rec.Level != level {
				continue
			}
			rootID, ok := owners[types.NormalizeOrgID(rec.ParentID)]
			if !ok {
				continue
			}
			if index.Attach(rootID, rec) {
				next[types.NormalizeOrgID(rec.ID)] = rootID
			}
		}
		owners = next
	}
	return index
}
