package domain

import "strings"

// EMDAT export column names. The delimited and spreadsheet adapters both key
// RawRecord by these headers.
const (
	ColDisasterNo          = "Disaster No"
	ColEventName           = "Event Name"
	ColDisasterType        = "Disaster Type"
	ColDisasterSubtype     = "Disaster Subtype"
	ColCountry             = "Country"
	ColRegion              = "Region"
	ColLocation            = "Location"
	ColLatitude            = "Latitude"
	ColLongitude           = "Longitude"
	ColStartDate           = "Start Date"
	ColEndDate             = "End Date"
	ColYear                = "Year"
	ColStartYear           = "Start Year"
	ColStartMonth          = "Start Month"
	ColStartDay            = "Start Day"
	ColEndYear             = "End Year"
	ColEndMonth            = "End Month"
	ColEndDay              = "End Day"
	ColTotalDeaths         = "Total Deaths"
	ColNoInjured           = "No Injured"
	ColNoMissing           = "No Missing"
	ColNoAffected          = "No Affected"
	ColNoHomeless          = "No Homeless"
	ColTotalAffected       = "Total Affected"
	ColTotalDamages        = "Total Damages ('000 US$)"
	ColTotalDamagesAdj     = "Total Damages, Adjusted ('000 US$)"
	ColInsuredDamages      = "Insured Damages ('000 US$)"
	ColReconstructionCosts = "Reconstruction Costs ('000 US$)"
	ColAidContribution     = "Aid Contribution ('000 US$)"
	ColInfrastructure      = "Infrastructure Damage"
	ColSourceURL           = "Source URL"
)

// RawRecord is one source row keyed by column header. Reading a column the row
// does not carry yields the empty string.
type RawRecord map[string]string

// Get returns the trimmed cell for col, or "" when absent.
func (r RawRecord) Get(col string) string {
	return strings.TrimSpace(r[col])
}

// First returns the first non-empty cell among cols.
func (r RawRecord) First(cols ...string) string {
	for _, c := range cols {
		if v := r.Get(c); v != "" {
			return v
		}
	}
	return ""
}

// Clone returns a shallow copy so adapters can inject derived columns without
// touching the caller's map.
func (r RawRecord) Clone() RawRecord {
	out := make(RawRecord, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}
