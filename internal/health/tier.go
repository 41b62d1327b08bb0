package health

// Tier tags a record with the fallback tier that actually produced it.
type Tier string

const (
	// TierLive means the record came straight from the source's API.
	TierLive Tier = "live"

	// TierExport means the record came from the bulk export mechanism.
	TierExport Tier = "export"

	// TierCache means the record was served from a previous fetch.
	TierCache Tier = "cache"
)

// tierRank orders tiers from freshest to stalest.
var tierRank = map[Tier]int{
	TierLive:   0,
	TierExport: 1,
	TierCache:  2,
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Staler reports whether t is a staler tier than other.
func (t Tier) Staler(other Tier) bool {
	return tierRank[t] > tierRank[other]
}

// WorstTier returns the stalest tier among those given, or "" when the
// list is empty. The pipeline uses it for the report's top-level
// staleness summary.
func WorstTier(tiers []Tier) Tier {
	var worst Tier
	for _, t := range tiers {
		if !t.Valid() {
			continue
		}
		if worst == "" || t.Staler(worst) {
			worst = t
		}
	}
	return worst
}
