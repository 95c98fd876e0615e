package kdtree

import "fmt"

// Stats summarizes the shape of a built tree
type Stats struct {
	Faces        int
	Nodes        int
	Leaves       int
	Depth        int
	MaxLeafFaces int
	AvgLeafDepth float64
}

func (s Stats) String() string {
	return fmt.Sprintf("faces=%d nodes=%d leaves=%d depth=%d maxLeafFaces=%d avgLeafDepth=%.2f",
		s.Faces, s.Nodes, s.Leaves, s.Depth, s.MaxLeafFaces, s.AvgLeafDepth)
}

// CountTotalFaces returns the number of faces held across all nodes.
// Every face is held by exactly one node, so this equals the input count.
func (t *Tree) CountTotalFaces() int {
	return t.count(t.root)
}

func (t *Tree) count(ref nodeRef) int {
	if !ref.ok() {
		return 0
	}
	n := &t.nodes[ref]
	return len(n.faces) + t.count(n.less) + t.count(n.more)
}

// Depth returns the number of nodes on the longest root-to-leaf path
func (t *Tree) Depth() int {
	return t.depth(t.root)
}

func (t *Tree) depth(ref nodeRef) int {
	if !ref.ok() {
		return 0
	}
	n := &t.nodes[ref]
	return 1 + max(t.depth(n.less), t.depth(n.more))
}

// MaxLeafObjects returns the largest number of faces held by a leaf
func (t *Tree) MaxLeafObjects() int {
	return t.maxLeafObjects(t.root)
}

func (t *Tree) maxLeafObjects(ref nodeRef) int {
	if !ref.ok() {
		return 0
	}
	n := &t.nodes[ref]
	if n.isLeaf() {
		return len(n.faces)
	}
	return max(t.maxLeafObjects(n.less), t.maxLeafObjects(n.more))
}

// NodeCount returns the number of nodes in the arena
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// Stats collects all shape statistics in one walk
func (t *Tree) Stats() Stats {
	stats := Stats{Nodes: len(t.nodes)}
	if t.root.ok() {
		t.collectStats(t.root, 1, &stats)
	}
	if stats.Leaves > 0 {
		stats.AvgLeafDepth /= float64(stats.Leaves)
	}
	return stats
}

func (t *Tree) collectStats(ref nodeRef, depth int, stats *Stats) {
	n := &t.nodes[ref]
	stats.Faces += len(n.faces)
	stats.Depth = max(stats.Depth, depth)

	if n.isLeaf() {
		stats.Leaves++
		stats.MaxLeafFaces = max(stats.MaxLeafFaces, len(n.faces))
		stats.AvgLeafDepth += float64(depth)
		return
	}

	if n.less.ok() {
		t.collectStats(n.less, depth+1, stats)
	}
	if n.more.ok() {
		t.collectStats(n.more, depth+1, stats)
	}
}
