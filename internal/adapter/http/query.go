package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/couchcryptid/emdat-etl/internal/store"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// parseFilter reads the event filter from query parameters. List parameters
// accept repeated keys and comma-separated values. paged is false for
// endpoints that aggregate over every match.
func parseFilter(c *gin.Context, paged bool) (store.Filter, error) {
	var f store.Filter

	for _, v := range listParam(c, "type") {
		t, ok := domain.ParseDisasterType(strings.ToLower(v))
		if !ok {
			return store.Filter{}, fmt.Errorf("invalid type %q", v)
		}
		f.Types = append(f.Types, t)
	}
	f.SubTypes = listParam(c, "subType")
	f.Countries = listParam(c, "country")

	var err error
	if f.StartDate, err = dateParam(c, "startDate"); err != nil {
		return store.Filter{}, err
	}
	if f.EndDate, err = dateParam(c, "endDate"); err != nil {
		return store.Filter{}, err
	}
	if f.MinDeaths, err = intParam(c, "minDeaths", 0, 0); err != nil {
		return store.Filter{}, err
	}
	if f.MinAffected, err = intParam(c, "minAffected", 0, 0); err != nil {
		return store.Filter{}, err
	}
	severity, err := intParam(c, "severity", 0, int(domain.MaxSeverity))
	if err != nil {
		return store.Filter{}, err
	}
	f.SeverityLevel = domain.SeverityLevel(severity)

	if !paged {
		return f, nil
	}
	if f.Limit, err = intParam(c, "limit", defaultPageSize, maxPageSize); err != nil {
		return store.Filter{}, err
	}
	if f.Offset, err = intParam(c, "offset", 0, 0); err != nil {
		return store.Filter{}, err
	}
	return f, nil
}

func listParam(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func dateParam(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, ok := domain.ParseDate(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid %s %q", key, raw)
	}
	return t, nil
}

// intParam parses a non-negative integer. hi of zero means unbounded.
func intParam(c *gin.Context, key string, def, hi int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || (hi > 0 && n > hi) {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}
