package domain

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// describe builds the one-sentence synopsis shown on event cards, e.g.
// "A flash flood (flood) occurred in Pakistan, resulting in 12 deaths and
// affecting 4,000 people."
func describe(disasterType, subType, country string, deaths int, affected *int, economicLoss *float64) string {
	var b strings.Builder

	b.WriteString("A ")
	if subType != "" {
		b.WriteString(strings.ToLower(subType))
		b.WriteString(" (")
		b.WriteString(strings.ToLower(disasterType))
		b.WriteString(")")
	} else {
		b.WriteString(strings.ToLower(disasterType))
	}
	b.WriteString(" occurred in ")
	b.WriteString(country)

	clauses := 0
	join := func() {
		if clauses == 0 {
			b.WriteString(", ")
		} else {
			b.WriteString(" and ")
		}
		clauses++
	}

	if deaths != 0 {
		join()
		b.WriteString("resulting in ")
		b.WriteString(humanize.Comma(int64(deaths)))
		b.WriteString(" deaths")
	}
	if affected != nil && *affected != 0 {
		join()
		b.WriteString("affecting ")
		b.WriteString(humanize.Comma(int64(*affected)))
		b.WriteString(" people")
	}
	if economicLoss != nil && *economicLoss != 0 {
		join()
		b.WriteString("with economic losses of $")
		b.WriteString(humanize.Comma(int64(math.Round(*economicLoss))))
	}

	b.WriteString(".")
	return b.String()
}
