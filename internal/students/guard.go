package students

import (
	"slices"

	"github.com/WOTOOOOOO/FAQ-tool/internal/metrics"
)

// Intent is the outcome of classifying a student-data question.
type Intent int

const (
	ReadOnly Intent = iota
	Modify
)

func (i Intent) String() string {
	if i == Modify {
		return "modify"
	}
	return "read_only"
}

// BlockedMessage is returned in place of any result for a modifying request.
const BlockedMessage = "Modification blocked: This query is not allowed. Only read-only queries are permitted."

type set map[string]struct{}

func newSet(words ...string) set {
	s := make(set, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func (s set) has(w string) bool {
	_, ok := s[w]
	return ok
}

var (
	// Base forms only: "changes" or "deleted" describe data, they do not ask
	// for a change.
	modifyVerbs = newSet(
		"update", "delete", "remove", "insert", "add", "change", "set", "modify",
		"drop", "rename", "increase", "decrease", "raise", "lower", "edit",
		"overwrite", "erase", "replace", "alter", "truncate", "append", "reset",
		"assign", "wipe", "purge", "clear", "enroll", "enrol", "unenroll", "expel",
	)
	// Verbs that usually produce output ("create a list"). They modify only
	// when their object is a record.
	makeVerbs = newSet("create", "make", "write", "generate")

	fillers = newSet("please", "kindly", "now", "just", "then", "ok", "okay", "hey", "hi", "so", "also", "quickly")

	// A new imperative clause may start after these.
	clauseMarks = newSet("please", "kindly", "then")

	quantifiers = newSet("all", "every", "each", "everyone", "everybody", "any")

	prepositions = newSet("from", "in", "into", "to", "at", "on", "over", "between", "by", "for", "with", "up")

	recordNouns = newSet("student", "students", "record", "records", "row", "rows", "entry", "entries", "table", "column", "data")
	fieldNouns  = newSet("tuition", "tuitions", "fee", "fees", "discount", "discounts", "rate", "semester",
		"nationality", "name", "surname", "course", "courses", "price")
	outputNouns = newSet("list", "summary", "report", "overview", "table", "chart", "breakdown", "count", "ranking", "sentence", "paragraph")

	requestPrefixes = [][]string{
		{"can", "you"}, {"could", "you"}, {"would", "you"}, {"will", "you"},
		{"i", "want", "to"}, {"i", "need", "to"}, {"we", "want", "to"}, {"we", "need", "to"},
		{"i", "would", "like", "to"}, {"i", "d", "like", "to"},
		{"let", "s"}, {"let", "us"}, {"go", "ahead", "and"},
	}
)

// Guard decides whether a question asks to change student data.
type Guard struct{}

// Classify reports Modify when the question asks for a change: a modifying
// verb leading a clause ("delete all students", "can you set ..."), a verb
// applied to every record ("what if we remove all ..."), or a field
// assignment ("change Ada's semester to 4").
func (Guard) Classify(question string) Intent {
	toks := metrics.Tokens(question)
	for i := range toks {
		if i == 0 || clauseMarks.has(toks[i-1]) {
			if j := skipLead(toks, i); j < len(toks) && imperative(toks, j) {
				return Modify
			}
		}
		if !modifyVerbs.has(toks[i]) || i+1 >= len(toks) {
			continue
		}
		next := toks[i+1]
		if toks[i] != "add" && quantifiers.has(next) {
			return Modify
		}
		if assignment(toks, i) {
			return Modify
		}
	}
	return ReadOnly
}

// skipLead steps past fillers and request phrasings starting at i.
func skipLead(toks []string, i int) int {
	for i < len(toks) {
		if fillers.has(toks[i]) {
			i++
			continue
		}
		matched := false
		for _, p := range requestPrefixes {
			if i+len(p) <= len(toks) && slices.Equal(toks[i:i+len(p)], p) {
				i += len(p)
				matched = true
				break
			}
		}
		if !matched {
			return i
		}
	}
	return i
}

// imperative reports whether toks[i] starts a modifying command.
func imperative(toks []string, i int) bool {
	verb := toks[i]
	var next string
	if i+1 < len(toks) {
		next = toks[i+1]
	}
	switch {
	case verb == "add" && next == "up":
		return false
	case modifyVerbs.has(verb):
		return true
	case makeVerbs.has(verb):
		// "create a new student record" modifies, "create a list of students" does not.
		for _, t := range toks[i+1 : min(i+5, len(toks))] {
			if outputNouns.has(t) {
				return false
			}
			if recordNouns.has(t) {
				return true
			}
		}
	}
	return false
}

// assignment matches "<verb> <object naming a field> to <value>".
func assignment(toks []string, i int) bool {
	if prepositions.has(toks[i+1]) {
		return false
	}
	field := false
	for j := i + 1; j < min(i+6, len(toks)); j++ {
		switch {
		case fieldNouns.has(toks[j]):
			field = true
		case toks[j] == "to":
			return field
		}
	}
	return false
}
