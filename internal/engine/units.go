package engine

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/voter-segmentation/pkg/model"
)

// buildUnits materializes atomic units from families. The family
// centroid anchors the unit; when the family row carries no
// coordinates the centroid falls back to the mean of its located
// members. Families with no usable location at all cannot be placed
// and are returned separately.
func buildUnits(families []model.Family, voters []model.Voter) (units []model.AtomicUnit, unplaced []string) {
	votersByFamily := make(map[string][]model.Voter)
	for _, v := range voters {
		votersByFamily[v.FamilyID] = append(votersByFamily[v.FamilyID], v)
	}

	for _, f := range families {
		if f.MemberCount <= 0 {
			continue
		}

		members := votersByFamily[f.ID]
		voterIDs := make([]string, 0, len(members))
		for _, v := range members {
			voterIDs = append(voterIDs, v.ID)
		}
		sort.Strings(voterIDs)

		centroid, ok := familyCentroid(f, members)
		if !ok {
			unplaced = append(unplaced, f.ID)
			continue
		}

		units = append(units, model.AtomicUnit{
			ID:       f.ID,
			VoterIDs: voterIDs,
			Voters:   f.MemberCount,
			Centroid: centroid,
		})
	}

	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	sort.Strings(unplaced)
	return units, unplaced
}

func familyCentroid(f model.Family, members []model.Voter) (orb.Point, bool) {
	if f.Lat != nil && f.Lng != nil {
		return orb.Point{*f.Lng, *f.Lat}, true
	}

	var sumLng, sumLat float64
	located := 0
	for _, v := range members {
		if v.HasLocation() {
			sumLng += *v.Lng
			sumLat += *v.Lat
			located++
		}
	}
	if located == 0 {
		return orb.Point{}, false
	}
	return orb.Point{sumLng / float64(located), sumLat / float64(located)}, true
}

// unitPoints collects unit centroids in unit order.
func unitPoints(units []model.AtomicUnit) []orb.Point {
	points := make([]orb.Point, len(units))
	for i, u := range units {
		points[i] = u.Centroid
	}
	return points
}

// totalVoters sums unit voter counts.
func totalVoters(units []model.AtomicUnit) int {
	total := 0
	for _, u := range units {
		total += u.Voters
	}
	return total
}
