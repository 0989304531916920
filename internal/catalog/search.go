package catalog

import (
	"strconv"
	"strings"
	"time"
)

// DateWindow limits results to items registered within a recent period.
type DateWindow string

const (
	WindowAll      DateWindow = "all"
	WindowDay      DateWindow = "1d"
	WindowWeek     DateWindow = "1w"
	WindowMonth    DateWindow = "1m"
	WindowHalfYear DateWindow = "6m"
)

// Since returns the lower bound of the window. Unknown keywords and "all"
// report false: no time constraint.
func (w DateWindow) Since(now time.Time) (time.Time, bool) {
	switch w {
	case WindowDay:
		return now.AddDate(0, 0, -1), true
	case WindowWeek:
		return now.AddDate(0, 0, -7), true
	case WindowMonth:
		return now.AddDate(0, -1, 0), true
	case WindowHalfYear:
		return now.AddDate(0, -6, 0), true
	}
	return time.Time{}, false
}

// SearchField selects which column the free-text query is matched against.
type SearchField string

const (
	SearchByName    SearchField = "itemNm"
	SearchByCreator SearchField = "createdBy"
)

// SearchFilter holds the optional filters; zero values impose no constraint.
type SearchFilter struct {
	SellStatus SellStatus
	DateWindow DateWindow
	SearchBy   SearchField
	Query      string
}

// predicate is one SQL condition using '?' placeholders.
type predicate struct {
	cond string
	args []any
}

func sellStatusEq(s SellStatus) *predicate {
	if s == "" {
		return nil
	}
	return &predicate{cond: "i.sell_status = ?", args: []any{string(s)}}
}

func registeredAfter(w DateWindow, now time.Time) *predicate {
	since, ok := w.Since(now)
	if !ok {
		return nil
	}
	return &predicate{cond: "i.created_at > ?", args: []any{since}}
}

func searchByLike(by SearchField, q string) *predicate {
	if q == "" {
		return nil
	}
	switch by {
	case SearchByName:
		return nameLike(q)
	case SearchByCreator:
		return &predicate{cond: `i.created_by LIKE ? ESCAPE '\'`, args: []any{contains(q)}}
	}
	return nil
}

func nameLike(q string) *predicate {
	if q == "" {
		return nil
	}
	return &predicate{cond: `i.name LIKE ? ESCAPE '\'`, args: []any{contains(q)}}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func contains(q string) string { return "%" + likeEscaper.Replace(q) + "%" }

// adminPredicates composes the admin search filters.
func adminPredicates(f SearchFilter, now time.Time) []*predicate {
	return []*predicate{
		registeredAfter(f.DateWindow, now),
		sellStatusEq(f.SellStatus),
		searchByLike(f.SearchBy, f.Query),
	}
}

// mainPredicates composes the storefront filters: name match and status.
func mainPredicates(f SearchFilter) []*predicate {
	return []*predicate{
		nameLike(f.Query),
		sellStatusEq(f.SellStatus),
	}
}

// where ANDs the non-nil predicates and numbers placeholders from $1.
// It returns an empty clause when nothing constrains the query.
func where(preds ...*predicate) (string, []any) {
	var (
		conds []string
		args  []any
	)
	for _, p := range preds {
		if p == nil {
			continue
		}
		cond := p.cond
		for _, a := range p.args {
			args = append(args, a)
			cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1)
		}
		conds = append(conds, cond)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
