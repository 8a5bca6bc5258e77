package card

import (
	"strconv"
	"strings"
)

// RootSuperiorID marks a node without a parent.
const RootSuperiorID uint64 = 0

// LocationSeparator joins node names from area to leaf.
const LocationSeparator = " / "

// Node is the slice of a hierarchy level the resolver needs.
type Node struct {
	ID         uint64
	SuperiorID uint64
	Name       string
}

// Resolution is where a leaf node sits in its site hierarchy.
type Resolution struct {
	Leaf       Node
	Area       Node
	Location   string
	Depth      int
	SuperiorID uint64
}

// Resolve walks parent links from nodeID up to the root node, which becomes
// the area. nodes must hold every node of the site; it is only read.
func Resolve(nodeID uint64, nodes map[uint64]Node) (Resolution, error) {
	leaf, ok := nodes[nodeID]
	if !ok {
		return Resolution{}, &ResolutionError{NodeID: nodeID, Reason: "node is not part of the site hierarchy"}
	}

	path := []Node{leaf}
	visited := map[uint64]struct{}{leaf.ID: {}}
	current := leaf
	for current.SuperiorID != RootSuperiorID {
		parent, ok := nodes[current.SuperiorID]
		if !ok {
			return Resolution{}, &ResolutionError{
				NodeID: nodeID,
				Reason: "ancestor " + strconv.FormatUint(current.SuperiorID, 10) + " is missing",
			}
		}
		if _, seen := visited[parent.ID]; seen {
			return Resolution{}, &ResolutionError{
				NodeID: nodeID,
				Reason: "cycle detected at node " + strconv.FormatUint(parent.ID, 10),
			}
		}
		visited[parent.ID] = struct{}{}
		path = append(path, parent)
		current = parent
	}

	names := make([]string, 0, len(path))
	for i := len(path) - 1; i >= 0; i-- {
		names = append(names, strings.TrimSpace(path[i].Name))
	}

	superiorID := leaf.SuperiorID
	if superiorID == RootSuperiorID {
		superiorID = leaf.ID
	}

	return Resolution{
		Leaf:       leaf,
		Area:       path[len(path)-1],
		Location:   strings.Join(names, LocationSeparator),
		Depth:      len(path),
		SuperiorID: superiorID,
	}, nil
}
