// Package tree assembles flat member rows into a family forest for
// hierarchical rendering, and walks ancestor and descendant lines.
package tree

import (
	"sort"

	"genealogy/internal/models"
)

// Node is one member in the assembled forest
type Node struct {
	ID        int64         `json:"id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Name      string        `json:"name"`
	Gender    models.Gender `json:"gender"`
	BirthDate string        `json:"birth_date,omitempty"`
	DeathDate string        `json:"death_date,omitempty"`
	ClanID    *int64        `json:"clan_id"`
	ClanName  string        `json:"clan_name,omitempty"`
	Children  []*Node       `json:"children"`
}

func newNode(r models.TreeMember) *Node {
	return &Node{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Name:      models.JoinName(r.FirstName, r.MiddleName, r.LastName),
		Gender:    r.Gender,
		BirthDate: r.BirthDate,
		DeathDate: r.DeathDate,
		ClanID:    r.ClanID,
		ClanName:  r.ClanName,
		Children:  []*Node{},
	}
}

// attachParent picks the parent a row hangs under: parent1 when present in
// the set, else parent2. It returns 0 for a root.
func attachParent(r models.TreeMember, present map[int64]bool) int64 {
	if r.Parent1ID != nil && *r.Parent1ID != r.ID && present[*r.Parent1ID] {
		return *r.Parent1ID
	}
	if r.Parent2ID != nil && *r.Parent2ID != r.ID && present[*r.Parent2ID] {
		return *r.Parent2ID
	}
	return 0
}

// Build assembles rows into a forest. A row whose parents are both absent
// from rows becomes a root. Members caught in a parent cycle with no root
// above them are promoted to roots, lowest ID first, and every member appears
// exactly once. Roots and children are ordered by ID.
func Build(rows []models.TreeMember) []*Node {
	sorted := make([]models.TreeMember, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	present := make(map[int64]bool, len(sorted))
	for _, r := range sorted {
		present[r.ID] = true
	}

	nodes := make(map[int64]*Node, len(sorted))
	children := make(map[int64][]int64)
	var rootIDs []int64
	for _, r := range sorted {
		if _, dup := nodes[r.ID]; dup {
			continue
		}
		nodes[r.ID] = newNode(r)
		if parent := attachParent(r, present); parent != 0 {
			children[parent] = append(children[parent], r.ID)
		} else {
			rootIDs = append(rootIDs, r.ID)
		}
	}

	visited := make(map[int64]bool, len(nodes))
	var expand func(n *Node)
	expand = func(n *Node) {
		visited[n.ID] = true
		for _, childID := range children[n.ID] {
			if visited[childID] {
				continue
			}
			child := nodes[childID]
			n.Children = append(n.Children, child)
			expand(child)
		}
	}

	forest := []*Node{}
	for _, id := range rootIDs {
		forest = append(forest, nodes[id])
		expand(nodes[id])
	}

	// Anything left is only reachable through a cycle
	for _, r := range sorted {
		if !visited[r.ID] {
			forest = append(forest, nodes[r.ID])
			expand(nodes[r.ID])
		}
	}
	return forest
}

// FilterByClan keeps the rows of one clan. Members whose parents sit in
// another clan become roots of the filtered forest.
func FilterByClan(rows []models.TreeMember, clanID int64) []models.TreeMember {
	out := []models.TreeMember{}
	for _, r := range rows {
		if r.ClanID != nil && *r.ClanID == clanID {
			out = append(out, r)
		}
	}
	return out
}

// Depth is the number of generations on the longest root-to-leaf path
func Depth(forest []*Node) int {
	max := 0
	for _, n := range forest {
		if d := 1 + Depth(n.Children); d > max {
			max = d
		}
	}
	return max
}

// Count is the number of nodes in the forest
func Count(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + Count(n.Children)
	}
	return total
}

// Ancestors returns the IDs of every ancestor of id through either parent,
// nearest generation first. id itself is never included.
func Ancestors(rows []models.TreeMember, id int64) []int64 {
	byID := make(map[int64]models.TreeMember, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	return walk(id, func(cur int64) []int64 {
		r, ok := byID[cur]
		if !ok {
			return nil
		}
		var parents []int64
		for _, p := range []*int64{r.Parent1ID, r.Parent2ID} {
			if p != nil {
				if _, known := byID[*p]; known {
					parents = append(parents, *p)
				}
			}
		}
		return parents
	})
}

// Descendants returns the IDs of every descendant of id through either
// parent link, nearest generation first. id itself is never included.
func Descendants(rows []models.TreeMember, id int64) []int64 {
	kids := make(map[int64][]int64)
	for _, r := range rows {
		if r.Parent1ID != nil {
			kids[*r.Parent1ID] = append(kids[*r.Parent1ID], r.ID)
		}
		if r.Parent2ID != nil && (r.Parent1ID == nil || *r.Parent2ID != *r.Parent1ID) {
			kids[*r.Parent2ID] = append(kids[*r.Parent2ID], r.ID)
		}
	}
	for k := range kids {
		sort.Slice(kids[k], func(i, j int) bool { return kids[k][i] < kids[k][j] })
	}

	return walk(id, func(cur int64) []int64 { return kids[cur] })
}

// walk is a breadth-first traversal from start that visits each ID once
func walk(start int64, next func(int64) []int64) []int64 {
	seen := map[int64]bool{start: true}
	queue := []int64{start}
	out := []int64{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, id := range next(cur) {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
			queue = append(queue, id)
		}
	}
	return out
}
