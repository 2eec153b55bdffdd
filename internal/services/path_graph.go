package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/types"
)

// prereqAdjacency builds node -> prerequisite adjacency from explicit edge
// rows. Graphs are walked over ids, never pointer-chased.
func prereqAdjacency(edges []*types.NodePrerequisite) map[uuid.UUID][]uuid.UUID {
	adj := make(map[uuid.UUID][]uuid.UUID, len(edges))
	for _, e := range edges {
		adj[e.NodeID] = append(adj[e.NodeID], e.PrerequisiteID)
	}
	return adj
}

// wouldCycle reports whether adding the edge node -> prereq to the adjacency
// would make node reachable from itself. Self-edges always cycle.
func wouldCycle(adj map[uuid.UUID][]uuid.UUID, nodeID, prereqID uuid.UUID) bool {
	if nodeID == prereqID {
		return true
	}
	// A cycle appears iff nodeID is already reachable from prereqID.
	stack := []uuid.UUID{prereqID}
	visited := map[uuid.UUID]bool{}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == nodeID {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, adj[current]...)
	}
	return false
}

// recomputeUnlockFlags derives is_unlocked and unlock_date for every node
// from prerequisite completion, iterating to a fixed point so a batch of
// completions cascades level by level. Idempotent: same inputs, same output.
func recomputeUnlockFlags(nodes []*types.PathNode, edges []*types.NodePrerequisite, pathStart *time.Time, now time.Time) {
	byID := make(map[uuid.UUID]*types.PathNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	adj := prereqAdjacency(edges)

	for changed := true; changed; {
		changed = false
		for _, n := range nodes {
			prereqs := adj[n.ID]
			unlocked := true
			var latestCompletion *time.Time
			for _, pid := range prereqs {
				p, ok := byID[pid]
				if !ok || !p.IsCompleted {
					unlocked = false
					break
				}
				if p.CompletionDate != nil && (latestCompletion == nil || p.CompletionDate.After(*latestCompletion)) {
					latestCompletion = p.CompletionDate
				}
			}

			var unlockDate *time.Time
			if unlocked {
				switch {
				case len(prereqs) == 0:
					if pathStart != nil {
						unlockDate = pathStart
					} else {
						d := now
						unlockDate = &d
					}
				case latestCompletion != nil:
					unlockDate = latestCompletion
				default:
					d := now
					unlockDate = &d
				}
			}

			if n.IsUnlocked != unlocked || !equalTimePtr(n.UnlockDate, unlockDate) {
				n.IsUnlocked = unlocked
				n.UnlockDate = unlockDate
				changed = true
			}
		}
	}
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// computeProgress derives the path progress percentage. Required nodes carry
// requiredWeight of the score and everything else shares optionalWeight, so
// a path cannot show high progress from optional content alone. With no
// required nodes the score falls back to plain completed/total.
func computeProgress(nodes []*types.PathNode, requiredWeight, optionalWeight float64) (progress float64, completed, total int) {
	total = len(nodes)
	if total == 0 {
		return 0, 0, 0
	}

	var required, requiredDone, other, otherDone int
	for _, n := range nodes {
		done := n.IsCompleted
		if done {
			completed++
		}
		if n.NodeType == types.NodeTypeRequired {
			required++
			if done {
				requiredDone++
			}
		} else {
			other++
			if done {
				otherDone++
			}
		}
	}

	if required == 0 {
		return float64(completed) / float64(total) * 100, completed, total
	}
	if other == 0 {
		// Required nodes carry the whole score when nothing else exists.
		return float64(requiredDone) / float64(required) * 100, completed, total
	}

	progress = requiredWeight*float64(requiredDone)/float64(required) +
		optionalWeight*float64(otherDone)/float64(other)
	return progress * 100, completed, total
}
