package query

import (
	"fmt"
	"strings"
	"time"

	"ucode/ucode_content_query_service/models"
	"ucode/ucode_content_query_service/storage"
)

// Stored datetimes are "2006-01-02 15:04:05" strings, so date parts are
// fixed-offset substrings of the column.
var datePartSpans = map[string][2]int{
	"year":   {1, 4},
	"month":  {6, 2},
	"day":    {9, 2},
	"hour":   {12, 2},
	"minute": {15, 2},
	"second": {18, 2},
}

func datePart(column, field string) string {
	span := datePartSpans[field]

	return fmt.Sprintf("SUBSTRING(%s FROM %d FOR %d)", column, span[0], span[1])
}

func validCalendarDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

// dateWhere builds the conjunct for the exact-field date vars: each set
// field becomes one equality against its part of the stored datetime.
func (q *Query) dateWhere() string {
	v := &q.Vars
	column := storage.PostsTable + ".post_date"

	var conds []string
	eq := func(field string, val int) {
		conds = append(conds, fmt.Sprintf("%s = '%0*d'", datePart(column, field), datePartSpans[field][1], val))
	}

	if v.Hour > 0 {
		eq("hour", v.Hour)
	}
	if v.Minute > 0 {
		eq("minute", v.Minute)
	}
	if v.Second > 0 {
		eq("second", v.Second)
	}
	if v.Year > 0 {
		eq("year", v.Year)
	}
	if v.Monthnum > 0 {
		eq("month", v.Monthnum)
	}
	if v.Day > 0 {
		eq("day", v.Day)
	}

	if len(conds) == 0 {
		return ""
	}

	return " AND " + strings.Join(conds, " AND ")
}

// compactDateWhere decomposes the packed "m" value into per-field
// equalities, consuming digit pairs for as long as the value lasts.
func (q *Query) compactDateWhere() string {
	m := q.Vars.M
	if len(m) < 4 {
		return ""
	}
	column := storage.PostsTable + ".post_date"

	conds := []string{fmt.Sprintf("%s = '%s'", datePart(column, "year"), m[:4])}

	fields := []string{"month", "day", "hour", "minute", "second"}
	offset := 4
	for _, field := range fields {
		if len(m) < offset+2 {
			break
		}
		conds = append(conds, fmt.Sprintf("%s = '%s'", datePart(column, field), m[offset:offset+2]))
		offset += 2
	}

	return " AND " + strings.Join(conds, " AND ")
}

// dateQueryWhere renders the structured date clause list. Clauses combine
// with AND; within a clause each set field compares with the clause
// operator.
func dateQueryWhere(clauses []models.DateClause) string {
	var parts []string

	for _, clause := range clauses {
		column := clause.Column
		if column == "" {
			column = "post_date"
		}
		column = storage.PostsTable + "." + column

		op := clause.Compare
		switch op {
		case "=", "!=", ">", ">=", "<", "<=":
		default:
			op = "="
		}

		var conds []string
		cmp := func(field string, val int) {
			if val <= 0 {
				return
			}
			conds = append(conds,
				fmt.Sprintf("CAST(%s AS INTEGER) %s %d", datePart(column, field), op, val))
		}

		cmp("year", clause.Year)
		cmp("month", clause.Month)
		cmp("day", clause.Day)
		cmp("hour", clause.Hour)
		cmp("minute", clause.Minute)
		cmp("second", clause.Second)

		if len(conds) > 0 {
			parts = append(parts, "( "+strings.Join(conds, " AND ")+" )")
		}
	}

	if len(parts) == 0 {
		return ""
	}

	return " AND " + strings.Join(parts, " AND ")
}
