// Package domain models disaster events normalized from EM-DAT exports.
//
// # Data Source
//
// EM-DAT (https://www.emdat.be) publishes one row per disaster with a
// "Disaster No" identifier, free-text type and subtype, place names at
// country, region and location granularity, optional coordinates, and impact
// columns. Exports arrive as CSV or as an xlsx workbook whose dates are split
// into "Start Year"/"Start Month"/"Start Day" columns.
//
// # EM-DAT Conventions
//
// Money columns are suffixed ('000 US$) and hold thousands of US dollars.
// They are multiplied by 1000 during normalization. When "Total Damages" is
// blank the inflation-adjusted column is used instead.
//
// Coordinates are often blank or "0"; (0,0) is treated as missing. The
// [Resolver] then falls back through the gazetteer:
//
//	exact coordinates -> city (Location column) -> region -> country -> remote geocoder
//
// Region names lose a trailing "province", "state" or "region" before lookup,
// so "Sichuan Province" matches the "Sichuan" entry.
//
// Dates may be ISO datetimes, bare years ("1990" is 1990-01-01), or D/M/YYYY.
// All timestamps are UTC. A record whose start date cannot be parsed is
// rejected rather than dated to the present.
//
// # Classification
//
// Free-text types map onto a closed set of eight categories by ordered
// keyword match. See [ClassifyType]. Severity is a 1-5 composite of deaths,
// affected population and economic loss. See [ScoreSeverity].
//
// # ID Generation
//
// Event IDs are "emdat-" plus the Disaster No, or the row index when the
// export omits it. The ingester keeps IDs unique within a batch by rejecting
// any later record that repeats one; batches replace each other wholesale.
package domain
