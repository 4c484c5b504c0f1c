package students

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Aggregate selects the shape of a query result.
type Aggregate string

const (
	AggList          Aggregate = "list"
	AggCount         Aggregate = "count"
	AggAvgTuition    Aggregate = "avg_tuition"
	AggSumTuition    Aggregate = "sum_tuition"
	AggMinTuition    Aggregate = "min_tuition"
	AggMaxTuition    Aggregate = "max_tuition"
	AggByNationality Aggregate = "by_nationality"
	AggBySemester    Aggregate = "by_semester"
)

// Aggregates lists every accepted aggregate.
var Aggregates = []Aggregate{AggList, AggCount, AggAvgTuition, AggSumTuition, AggMinTuition, AggMaxTuition, AggByNationality, AggBySemester}

// ParseAggregate accepts an aggregate name; empty means list.
func ParseAggregate(s string) (Aggregate, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AggList, nil
	}
	for _, a := range Aggregates {
		if string(a) == s {
			return a, nil
		}
	}
	names := make([]string, len(Aggregates))
	for i, a := range Aggregates {
		names[i] = string(a)
	}
	return "", fmt.Errorf("unknown aggregate %q (use one of: %s)", s, strings.Join(names, ", "))
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filter narrows the rows a query looks at. Text fields match
// case-insensitively as substrings; zero values are ignored.
type Filter struct {
	Name         string
	Surname      string
	Nationality  string
	Course       string
	DiscountRate string
	Semester     int
	MinTuition   *float64
	MaxTuition   *float64
	Aggregate    Aggregate
	Limit        int
}

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	}
	return f.Limit
}

func (f Filter) match(s Student) bool {
	if !contains(s.Name, f.Name) || !contains(s.Surname, f.Surname) || !contains(s.Nationality, f.Nationality) {
		return false
	}
	if f.Course != "" && !contains(s.AllCourses, f.Course) {
		return false
	}
	if f.Semester != 0 && s.Semester != f.Semester {
		return false
	}
	if f.DiscountRate != "" {
		want, err := ParseDiscount(f.DiscountRate)
		have, _ := ParseDiscount(s.DiscountRate)
		if err != nil || want != have {
			return false
		}
	}
	if f.MinTuition != nil && s.TuitionFees < *f.MinTuition {
		return false
	}
	if f.MaxTuition != nil && s.TuitionFees > *f.MaxTuition {
		return false
	}
	return true
}

func contains(field, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(strings.TrimSpace(sub)))
}

// Group is one bucket of a grouped aggregate.
type Group struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	AvgTuition float64 `json:"avg_tuition"`
}

// Result holds the answer to a Query. Rows are copies.
type Result struct {
	Aggregate Aggregate `json:"aggregate"`
	Matched   int       `json:"matched"`
	Rows      []Student `json:"rows,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Groups    []Group   `json:"groups,omitempty"`
}

// Query evaluates f over the store. The store itself is never changed.
func (s *Store) Query(f Filter) (Result, error) {
	agg := f.Aggregate
	if agg == "" {
		agg = AggList
	}
	if _, err := ParseAggregate(string(agg)); err != nil {
		return Result{}, err
	}
	if f.DiscountRate != "" {
		if _, err := ParseDiscount(f.DiscountRate); err != nil {
			return Result{}, err
		}
	}

	var matched []Student
	for _, row := range s.rows {
		if f.match(row) {
			matched = append(matched, row)
		}
	}
	res := Result{Aggregate: agg, Matched: len(matched)}
	if len(matched) == 0 {
		return res, nil
	}

	switch agg {
	case AggList:
		n := min(f.limit(), len(matched))
		res.Rows = append([]Student(nil), matched[:n]...)
	case AggCount:
		res.Value = float64(len(matched))
	case AggAvgTuition:
		res.Value = round2(sum(matched) / float64(len(matched)))
	case AggSumTuition:
		res.Value = round2(sum(matched))
	case AggMinTuition, AggMaxTuition:
		best := matched[0]
		for _, m := range matched[1:] {
			if (agg == AggMinTuition && m.TuitionFees < best.TuitionFees) ||
				(agg == AggMaxTuition && m.TuitionFees > best.TuitionFees) {
				best = m
			}
		}
		res.Value = best.TuitionFees
		res.Rows = []Student{best}
	case AggByNationality:
		res.Groups = group(matched, func(st Student) string { return st.Nationality }, false)
	case AggBySemester:
		res.Groups = group(matched, func(st Student) string { return strconv.Itoa(st.Semester) }, true)
	}
	return res, nil
}

func sum(rows []Student) float64 {
	t := 0.0
	for _, r := range rows {
		t += r.TuitionFees
	}
	return t
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// group buckets rows by key. Semester groups sort by key; others by count
// descending, then key.
func group(rows []Student, key func(Student) string, numeric bool) []Group {
	idx := map[string]int{}
	var out []Group
	for _, r := range rows {
		k := key(r)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Group{Key: k})
		}
		out[i].Count++
		out[i].AvgTuition += r.TuitionFees
	}
	for i := range out {
		out[i].AvgTuition = round2(out[i].AvgTuition / float64(out[i].Count))
	}
	sort.SliceStable(out, func(a, b int) bool {
		if numeric {
			x, _ := strconv.Atoi(out[a].Key)
			y, _ := strconv.Atoi(out[b].Key)
			return x < y
		}
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Key < out[b].Key
	})
	return out
}

// NoMatchMessage is the text for an empty result.
const NoMatchMessage = "No students matched the query."

// Text renders the result for the model.
func (r Result) Text() string {
	if r.Matched == 0 {
		return NoMatchMessage
	}
	var b strings.Builder
	switch r.Aggregate {
	case AggCount:
		fmt.Fprintf(&b, "%d students matched.", r.Matched)
	case AggAvgTuition:
		fmt.Fprintf(&b, "Average tuition fee over %d students: %.2f", r.Matched, r.Value)
	case AggSumTuition:
		fmt.Fprintf(&b, "Total tuition fees over %d students: %.2f", r.Matched, r.Value)
	case AggMinTuition, AggMaxTuition:
		label := "Lowest"
		if r.Aggregate == AggMaxTuition {
			label = "Highest"
		}
		fmt.Fprintf(&b, "%s tuition fee among %d students: %.2f\n", label, r.Matched, r.Value)
		writeRows(&b, r.Rows)
	case AggByNationality, AggBySemester:
		label := "nationality"
		if r.Aggregate == AggBySemester {
			label = "semester"
		}
		fmt.Fprintf(&b, "%d students matched, grouped by %s:\n", r.Matched, label)
		for _, g := range r.Groups {
			fmt.Fprintf(&b, "- %s: %d (avg tuition %.2f)\n", g.Key, g.Count, g.AvgTuition)
		}
	default:
		fmt.Fprintf(&b, "%d students matched", r.Matched)
		if len(r.Rows) < r.Matched {
			fmt.Fprintf(&b, " (showing first %d)", len(r.Rows))
		}
		b.WriteString(":\n")
		writeRows(&b, r.Rows)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeRows(b *strings.Builder, rows []Student) {
	for _, s := range rows {
		fmt.Fprintf(b, "- #%d %s %s | %s | semester %d | discount %s | tuition %.2f | courses: %s\n",
			s.ID, s.Name, s.Surname, s.Nationality, s.Semester, s.DiscountRate, s.TuitionFees, s.AllCourses)
	}
}
