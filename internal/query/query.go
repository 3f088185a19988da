// Package query filters, sorts and summarises bug records in memory.
package query

import (
	"sort"
	"strings"
	"time"

	"bugbook/internal/bugstorage"
)

// DefaultLimit is the number of most recent records shown when no filter
// and no explicit limit is given.
const DefaultLimit = 5

// Sort keys.
const (
	SortPriority = "priority"
	SortDate     = "date"
	SortStatus   = "status"
	SortDueDate  = "dueDate"
	SortID       = "id"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SortKeys lists the accepted sort keys.
var SortKeys = []string{SortPriority, SortDate, SortStatus, SortDueDate, SortID}

// Options selects and orders records. Zero values mean "not set".
type Options struct {
	Status   string
	Priority string
	Tagged   string
	Author   string
	Sort     string
	Order    string
	Limit    int
}

// filter is Options with the filter values parsed. Unrecognised status and
// priority values are dropped.
type filter struct {
	status   bugstorage.Status
	priority bugstorage.Priority
	tagged   string
	author   string
}

func (o Options) filter() filter {
	var f filter
	if s, ok := bugstorage.ParseStatus(o.Status); ok {
		f.status = s
	}
	if p, ok := bugstorage.ParsePriority(o.Priority); ok {
		f.priority = p
	}
	f.tagged = strings.TrimSpace(o.Tagged)
	f.author = strings.ToLower(strings.TrimSpace(o.Author))
	return f
}

func (f filter) active() bool {
	return f.status != "" || f.priority != "" || f.tagged != "" || f.author != ""
}

func (f filter) match(b *bugstorage.Bug) bool {
	if f.status != "" && b.Status != f.status {
		return false
	}
	if f.priority != "" && b.Priority != f.priority {
		return false
	}
	if f.tagged != "" && !strings.EqualFold(b.Category, f.tagged) {
		return false
	}
	if f.author != "" && !strings.Contains(strings.ToLower(b.Author), f.author) {
		return false
	}
	return true
}

// Active reports whether any recognised filter is set.
func (o Options) Active() bool {
	return o.filter().active()
}

// Apply returns the records selected by o, in the requested order. The
// input slice is not modified.
//
// With no active filter and no limit, only the DefaultLimit most recent
// records are returned.
func Apply(bugs []*bugstorage.Bug, o Options) []*bugstorage.Bug {
	f := o.filter()
	out := make([]*bugstorage.Bug, 0, len(bugs))
	for _, b := range bugs {
		if f.match(b) {
			out = append(out, b)
		}
	}

	if !f.active() && o.Limit <= 0 {
		Sort(out, SortDate, OrderDesc)
		if len(out) > DefaultLimit {
			out = out[:DefaultLimit]
		}
	}

	Sort(out, o.Sort, o.Order)
	if o.Limit > 0 && len(out) > o.Limit {
		out = out[:o.Limit]
	}
	return out
}

// ResolveSort maps a requested key and order to the effective ones. Unknown
// keys fall back to date; unknown orders to the key's default, which is
// ascending for dueDate and descending otherwise.
func ResolveSort(key, order string) (string, string) {
	switch key {
	case SortPriority, SortDate, SortStatus, SortDueDate, SortID:
	default:
		key = SortDate
	}
	switch strings.ToLower(order) {
	case OrderAsc:
		return key, OrderAsc
	case OrderDesc:
		return key, OrderDesc
	}
	if key == SortDueDate {
		return key, OrderAsc
	}
	return key, OrderDesc
}

// Sort orders bugs in place. The sort is stable.
func Sort(bugs []*bugstorage.Bug, key, order string) {
	key, order = ResolveSort(key, order)
	desc := order == OrderDesc

	sort.SliceStable(bugs, func(i, j int) bool {
		a, b := bugs[i], bugs[j]
		if key == SortDueDate {
			// Records without a due date go last in either direction.
			if a.DueDate == "" || b.DueDate == "" {
				return a.DueDate != "" && b.DueDate == ""
			}
		}
		c := compare(a, b, key)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b *bugstorage.Bug, key string) int {
	switch key {
	case SortPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	case SortStatus:
		return strings.Compare(string(a.Status), string(b.Status))
	case SortDueDate:
		return strings.Compare(a.DueDate, b.DueDate)
	case SortID:
		return strings.Compare(a.ID, b.ID)
	default:
		return a.CreatedAt().Compare(b.CreatedAt())
	}
}

// IsOverdue reports whether b has a due date before today and is not
// resolved. Dates are compared at local midnight in now's location.
func IsOverdue(b *bugstorage.Bug, now time.Time) bool {
	if b.DueDate == "" || b.Status == bugstorage.StatusResolved {
		return false
	}
	due, err := time.ParseInLocation(bugstorage.DueDateLayout, b.DueDate, now.Location())
	if err != nil {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return due.Before(today)
}

// Overdue returns the overdue records in input order.
func Overdue(bugs []*bugstorage.Bug, now time.Time) []*bugstorage.Bug {
	var out []*bugstorage.Bug
	for _, b := range bugs {
		if IsOverdue(b, now) {
			out = append(out, b)
		}
	}
	return out
}
