// Package engine implements the segmentation pipeline: scope
// resolution, atomic-unit construction, the two partitioning
// strategies, validation and persistence, all inside one database
// transaction per run.
package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/voter-segmentation/internal/repository"
	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/model"
)

// levelKind classifies a hierarchy level by its name.
type levelKind int

const (
	levelUnknown levelKind = iota
	levelBooth
	levelConstituency
)

// classifyLevel matches level names case-insensitively. Booth markers
// are checked first so a name carrying both reads as a booth level.
func classifyLevel(name string) levelKind {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "booth") || strings.Contains(lower, "polling") {
		return levelBooth
	}
	if strings.Contains(lower, "assembly") || strings.Contains(lower, "ac") {
		return levelConstituency
	}
	return levelUnknown
}

// resolveScope classifies the target node and enumerates the in-scope
// booth ids, asserting the scope stays within one constituency.
func resolveScope(ctx context.Context, hier repository.HierarchyRepository, nodeID string) (*model.Scope, error) {
	node, err := hier.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	level, err := hier.GetLevel(ctx, node.LevelID)
	if err != nil {
		return nil, err
	}

	switch classifyLevel(level.Name) {
	case levelBooth:
		booths, err := hier.BoothsByNodeIDs(ctx, []string{node.ID})
		if err != nil {
			return nil, err
		}
		if len(booths) == 0 {
			return nil, apperrors.Newf(apperrors.CodeBoothNotFound, "no booths attached to node %s", node.ID)
		}
		return &model.Scope{
			Kind:       model.ScopeBooth,
			NodeID:     node.ID,
			ElectionID: node.ElectionID,
			BoothIDs:   boothIDs(booths),
		}, nil

	case levelConstituency:
		return resolveConstituencyScope(ctx, hier, node)

	default:
		return nil, apperrors.Newf(apperrors.CodeUnknownScope, "level %q is neither booth nor constituency", level.Name)
	}
}

// resolveConstituencyScope walks the hierarchy downward from the
// constituency node collecting booth-level descendants, then asserts
// all their booths share one constituency ancestor.
func resolveConstituencyScope(ctx context.Context, hier repository.HierarchyRepository, node *repository.HierarchyNode) (*model.Scope, error) {
	nodes, err := hier.ListNodes(ctx, node.ElectionID)
	if err != nil {
		return nil, err
	}
	levels, err := hier.ListLevels(ctx, node.ElectionID)
	if err != nil {
		return nil, err
	}

	kindByLevel := make(map[string]levelKind, len(levels))
	for _, l := range levels {
		kindByLevel[l.ID] = classifyLevel(l.Name)
	}

	byID := make(map[string]repository.HierarchyNode, len(nodes))
	children := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n.ID)
		}
	}
	for _, ids := range children {
		sort.Strings(ids)
	}

	// Recursive descent through parent_id.
	var boothNodeIDs []string
	frontier := []string{node.ID}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		n := byID[id]
		if kindByLevel[n.LevelID] == levelBooth {
			boothNodeIDs = append(boothNodeIDs, id)
		}
		frontier = append(frontier, children[id]...)
	}
	sort.Strings(boothNodeIDs)

	booths, err := hier.BoothsByNodeIDs(ctx, boothNodeIDs)
	if err != nil {
		return nil, err
	}
	if len(booths) == 0 {
		return nil, apperrors.Newf(apperrors.CodeBoothNotFound, "no booths under constituency node %s", node.ID)
	}

	if n := countConstituencyAncestors(boothNodeIDs, byID, kindByLevel); n > 1 {
		return nil, apperrors.Newf(apperrors.CodeBoundaryViolation, "scope spans %d constituencies", n)
	}

	return &model.Scope{
		Kind:       model.ScopeConstituency,
		NodeID:     node.ID,
		ElectionID: node.ElectionID,
		BoothIDs:   boothIDs(booths),
	}, nil
}

// countConstituencyAncestors walks each booth node up through its
// parents and counts the distinct constituency-level ancestors.
func countConstituencyAncestors(boothNodeIDs []string, byID map[string]repository.HierarchyNode, kindByLevel map[string]levelKind) int {
	seen := make(map[string]struct{})
	for _, id := range boothNodeIDs {
		cur, ok := byID[id]
		for ok {
			if kindByLevel[cur.LevelID] == levelConstituency {
				seen[cur.ID] = struct{}{}
				break
			}
			if cur.ParentID == nil {
				break
			}
			cur, ok = byID[*cur.ParentID]
		}
	}
	return len(seen)
}

func boothIDs(booths []repository.Booth) []string {
	ids := make([]string, len(booths))
	for i, b := range booths {
		ids[i] = b.ID
	}
	sort.Strings(ids)
	return ids
}
