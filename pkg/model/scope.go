package model

// ScopeKind classifies the hierarchy node a run is bounded to.
type ScopeKind string

const (
	// ScopeBooth bounds a run to a single polling booth.
	ScopeBooth ScopeKind = "booth"
	// ScopeConstituency bounds a run to a constituency and all its
	// descendant booths.
	ScopeConstituency ScopeKind = "constituency"
)

// Scope is the resolved target of a segmentation run.
type Scope struct {
	Kind       ScopeKind
	NodeID     string
	ElectionID string
	BoothIDs   []string
}

// Voter is the engine's read-only view of a voter row.
// Coordinates may be nil; such voters count toward totals but do not
// contribute to geometry.
type Voter struct {
	ID       string
	FamilyID string
	BoothID  string
	Lat      *float64
	Lng      *float64
}

// HasLocation reports whether the voter carries usable coordinates.
func (v *Voter) HasLocation() bool {
	return v.Lat != nil && v.Lng != nil
}

// Family is the engine's read-only view of a family row. Families are
// the atomic unit of movement: a family never splits across segments.
type Family struct {
	ID          string
	BoothID     string
	MemberCount int
	Lat         *float64
	Lng         *float64
}
