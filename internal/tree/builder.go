// Package tree converts the flat record list reported by the store into the
// nested tree the sidebar renders. Build is deterministic and keeps no state
// between calls.
package tree

import (
	"sort"
	"strings"

	"github.com/starford/eihwaz/internal/models"
	"github.com/starford/eihwaz/internal/pathutil"
)

// Build nests records by matching each record's parent path against known
// folder ids. Records whose declared parent does not exist are promoted to
// the root rather than dropped: a dangling parent is a defined fallback
// (mid-refresh inconsistency), not an error. Every level is sorted folders
// first, then case-insensitively by title, ties broken by id.
func Build(records []models.Record) []*models.TreeNode {
	// Index folder nodes by id. First-seen wins on id collision so child
	// attachment resolves to exactly one node; the loser still renders in
	// its own tree position below.
	folders := make(map[string]*models.TreeNode, len(records))
	nodes := make([]*models.TreeNode, len(records))
	for i, r := range records {
		n := &models.TreeNode{Record: r}
		if r.IsFolder() {
			n.Children = []*models.TreeNode{}
			if _, ok := folders[r.ID]; !ok {
				folders[r.ID] = n
			}
		}
		nodes[i] = n
	}

	var roots []*models.TreeNode
	for _, n := range nodes {
		parent := pathutil.Normalize(n.Path)
		if parent == "" {
			roots = append(roots, n)
			continue
		}
		p, ok := folders[parent]
		if !ok || p == n {
			roots = append(roots, n)
			continue
		}
		p.Children = append(p.Children, n)
	}

	sortLevel(roots)
	for _, f := range folders {
		sortLevel(f.Children)
	}
	return roots
}

// sortLevel orders one child list in place. Each level is sorted
// independently; order never depends on sibling subtrees.
func sortLevel(nodes []*models.TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
		if at != bt {
			return at < bt
		}
		return a.ID < b.ID
	})
}
