package query

import (
	"sort"
	"time"

	"bugbook/internal/bugstorage"
)

// Uncategorized labels records with an empty category in statistics.
const Uncategorized = "Uncategorized"

// CategoryCount is the number of records in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats summarises a set of records.
type Stats struct {
	Total      int             `json:"total"`
	Open       int             `json:"open"`
	Resolved   int             `json:"resolved"`
	Overdue    int             `json:"overdue"`
	High       int             `json:"high_priority_open"`
	Categories []CategoryCount `json:"categories"`
}

// Summarize counts records by status and category. Categories are ordered
// by count, most used first, ties by name.
func Summarize(bugs []*bugstorage.Bug, now time.Time) Stats {
	s := Stats{Total: len(bugs)}
	counts := make(map[string]int)
	for _, b := range bugs {
		switch b.Status {
		case bugstorage.StatusResolved:
			s.Resolved++
		default:
			s.Open++
			if b.Priority == bugstorage.PriorityHigh {
				s.High++
			}
		}
		if IsOverdue(b, now) {
			s.Overdue++
		}
		cat := b.Category
		if cat == "" {
			cat = Uncategorized
		}
		counts[cat]++
	}

	s.Categories = make([]CategoryCount, 0, len(counts))
	for cat, n := range counts {
		s.Categories = append(s.Categories, CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if s.Categories[i].Count != s.Categories[j].Count {
			return s.Categories[i].Count > s.Categories[j].Count
		}
		return s.Categories[i].Category < s.Categories[j].Category
	})
	return s
}
