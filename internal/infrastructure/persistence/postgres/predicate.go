package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// SQL BUILDING
// ══════════════════════════════════════════════════════════════════════════════

// idOrder sorts ids bytewise, matching strings.Compare in the domain comparator.
const idOrder = `::text COLLATE "C"`

// args collects positional parameters for one statement.
type args struct {
	values []any
}

// add appends v and returns its placeholder.
func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

// list returns the collected values.
func (a *args) list() []any {
	return a.values
}

// eligibilityClause pushes the scope predicate into SQL.
// idCol and countryCol must be qualified column expressions.
func eligibilityClause(a *args, e leaderboard.Eligibility, idCol, countryCol string) string {
	switch e.Mode() {
	case leaderboard.EligibleEveryone:
		return "TRUE"
	case leaderboard.EligibleMembers:
		return fmt.Sprintf("%s::text = ANY(%s::text[])", idCol, a.add(e.Members()))
	case leaderboard.EligibleCountry:
		return fmt.Sprintf("btrim(%s) = %s", countryCol, a.add(e.Country()))
	default:
		return "FALSE"
	}
}

// outrankClause renders leaderboard.Outranks against a threshold:
//
//	p > P OR (p = P AND t > T) OR (p = P AND t = T AND id < U)
//
// An empty tieCol means the metric has no tie-break key (the value is always 0).
func outrankClause(a *args, primaryCol, tieCol, idCol string, t leaderboard.Threshold) string {
	p := a.add(t.Primary)
	u := a.add(t.UserID)
	id := idCol + idOrder

	if tieCol == "" {
		return fmt.Sprintf("(%[1]s > %[2]s OR (%[1]s = %[2]s AND %[3]s < %[4]s))", primaryCol, p, id, u)
	}
	tb := a.add(t.TieBreak)
	return fmt.Sprintf(
		"(%[1]s > %[2]s OR (%[1]s = %[2]s AND %[3]s > %[4]s) OR (%[1]s = %[2]s AND %[3]s = %[4]s AND %[5]s < %[6]s))",
		primaryCol, p, tieCol, tb, id, u,
	)
}

// sinceClause bounds the event timestamp; zero since means all_time.
func sinceClause(a *args, col string, since time.Time) string {
	if since.IsZero() {
		return "TRUE"
	}
	return fmt.Sprintf("%s >= %s", col, a.add(since))
}

// orderBy renders the descending order with the id as final ascending key.
func orderBy(primaryCol, tieCol, idCol string) string {
	parts := []string{primaryCol + " DESC"}
	if tieCol != "" {
		parts = append(parts, tieCol+" DESC")
	}
	parts = append(parts, idCol+idOrder+" ASC")
	return "ORDER BY " + strings.Join(parts, ", ")
}

// limitClause renders LIMIT for positive limits only.
func limitClause(a *args, limit int) string {
	if limit <= 0 {
		return ""
	}
	return "LIMIT " + a.add(limit)
}

func and(clauses ...string) string {
	kept := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" && c != "TRUE" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return "TRUE"
	}
	return strings.Join(kept, " AND ")
}
