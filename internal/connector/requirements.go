package connector

// Requirement declares the contract for one expected table.
//
// Required tables missing at validation time are fatal; missing optional
// tables are informational. Eager tables are fully read into memory at
// construction; everything else stays backend-resident and is queried by
// callers directly. Eager is reserved for small reference tables - fact
// tables with large row counts must stay lazy.
type Requirement struct {
	Name     string
	Required bool
	Eager    bool
}

// DefaultRequirements returns the claims dataset contract: the five tables
// downstream analytics cannot run without, plus one optional rollup. Only the
// members roster is small enough to load eagerly; the claims fact tables are
// validated but left to scoped queries.
func DefaultRequirements() []Requirement {
	return []Requirement{
		{Name: "claims_entries", Required: true},
		{Name: "claims_diagnoses", Required: true},
		{Name: "claims_procedures", Required: true},
		{Name: "claims_drugs", Required: true},
		{Name: "members", Required: true, Eager: true},
		{Name: "claims_members_monthly_utilization"},
	}
}
