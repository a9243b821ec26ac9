package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voter-segmentation/internal/repository"
	apperrors "github.com/voter-segmentation/pkg/errors"
	"github.com/voter-segmentation/pkg/model"
)

type fakeHierarchy struct {
	nodes  map[string]repository.HierarchyNode
	levels map[string]repository.HierarchyLevel
	booths map[string][]repository.Booth // by node id
}

func (f *fakeHierarchy) GetNode(_ context.Context, id string) (*repository.HierarchyNode, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeUnknownScope, "node %s not found", id)
	}
	return &n, nil
}

func (f *fakeHierarchy) GetLevel(_ context.Context, id string) (*repository.HierarchyLevel, error) {
	l, ok := f.levels[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.CodeUnknownScope, "level %s not found", id)
	}
	return &l, nil
}

func (f *fakeHierarchy) ListNodes(_ context.Context, _ string) ([]repository.HierarchyNode, error) {
	var out []repository.HierarchyNode
	for _, n := range f.nodes {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeHierarchy) ListLevels(_ context.Context, _ string) ([]repository.HierarchyLevel, error) {
	var out []repository.HierarchyLevel
	for _, l := range f.levels {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeHierarchy) BoothsByNodeIDs(_ context.Context, nodeIDs []string) ([]repository.Booth, error) {
	var out []repository.Booth
	for _, id := range nodeIDs {
		out = append(out, f.booths[id]...)
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

// testHierarchy builds a district with two assembly constituencies,
// booth nodes B1 and B2 under AC1 and B3 under AC2, one booth each.
func testHierarchy() *fakeHierarchy {
	return &fakeHierarchy{
		levels: map[string]repository.HierarchyLevel{
			"L-district": {ID: "L-district", ElectionID: "el-1", Name: "District", Depth: 0},
			"L-ac":       {ID: "L-ac", ElectionID: "el-1", Name: "Assembly Constituency", Depth: 1},
			"L-booth":    {ID: "L-booth", ElectionID: "el-1", Name: "Polling Booth", Depth: 2},
		},
		nodes: map[string]repository.HierarchyNode{
			"D":   {ID: "D", ElectionID: "el-1", LevelID: "L-district"},
			"AC1": {ID: "AC1", ElectionID: "el-1", LevelID: "L-ac", ParentID: strPtr("D")},
			"AC2": {ID: "AC2", ElectionID: "el-1", LevelID: "L-ac", ParentID: strPtr("D")},
			"B1":  {ID: "B1", ElectionID: "el-1", LevelID: "L-booth", ParentID: strPtr("AC1")},
			"B2":  {ID: "B2", ElectionID: "el-1", LevelID: "L-booth", ParentID: strPtr("AC1")},
			"B3":  {ID: "B3", ElectionID: "el-1", LevelID: "L-booth", ParentID: strPtr("AC2")},
		},
		booths: map[string][]repository.Booth{
			"B1": {{ID: "booth-1", ElectionID: "el-1", NodeID: "B1"}},
			"B2": {{ID: "booth-2", ElectionID: "el-1", NodeID: "B2"}},
			"B3": {{ID: "booth-3", ElectionID: "el-1", NodeID: "B3"}},
		},
	}
}

func TestClassifyLevel(t *testing.T) {
	tests := []struct {
		name string
		want levelKind
	}{
		{"Polling Booth", levelBooth},
		{"BOOTH", levelBooth},
		{"Assembly Constituency", levelConstituency},
		{"AC", levelConstituency},
		{"Booth of AC 12", levelBooth}, // booth markers win
		{"District", levelUnknown},
		{"Ward", levelUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyLevel(tt.name))
		})
	}
}

func TestResolveScope(t *testing.T) {
	ctx := context.Background()

	t.Run("BoothNode", func(t *testing.T) {
		scope, err := resolveScope(ctx, testHierarchy(), "B1")
		require.NoError(t, err)

		assert.Equal(t, model.ScopeBooth, scope.Kind)
		assert.Equal(t, "el-1", scope.ElectionID)
		assert.Equal(t, []string{"booth-1"}, scope.BoothIDs)
	})

	t.Run("ConstituencyNodeCollectsDescendantBooths", func(t *testing.T) {
		scope, err := resolveScope(ctx, testHierarchy(), "AC1")
		require.NoError(t, err)

		assert.Equal(t, model.ScopeConstituency, scope.Kind)
		assert.Equal(t, []string{"booth-1", "booth-2"}, scope.BoothIDs)
	})

	t.Run("UnknownLevelKind", func(t *testing.T) {
		_, err := resolveScope(ctx, testHierarchy(), "D")
		assert.Equal(t, apperrors.CodeUnknownScope, apperrors.GetErrorCode(err))
	})

	t.Run("BoothNodeWithoutBooths", func(t *testing.T) {
		h := testHierarchy()
		delete(h.booths, "B2")

		_, err := resolveScope(ctx, h, "B2")
		assert.Equal(t, apperrors.CodeBoothNotFound, apperrors.GetErrorCode(err))
	})

	t.Run("ConstituencyWithoutBooths", func(t *testing.T) {
		h := testHierarchy()
		h.booths = map[string][]repository.Booth{}

		_, err := resolveScope(ctx, h, "AC1")
		assert.Equal(t, apperrors.CodeBoothNotFound, apperrors.GetErrorCode(err))
	})

	t.Run("ScopeSpanningTwoConstituencies", func(t *testing.T) {
		// A zone misclassified as a constituency that sits above both
		// ACs pulls in booths from each of them.
		h := testHierarchy()
		h.levels["L-district"] = repository.HierarchyLevel{
			ID: "L-district", ElectionID: "el-1", Name: "AC Zone", Depth: 0,
		}

		_, err := resolveScope(ctx, h, "D")
		assert.Equal(t, apperrors.CodeBoundaryViolation, apperrors.GetErrorCode(err))
	})

	t.Run("MissingNode", func(t *testing.T) {
		_, err := resolveScope(ctx, testHierarchy(), "nope")
		assert.Error(t, err)
	})
}
