// Package students loads the student-records CSV once, read-only, and answers
// structured queries over an in-memory copy.
package students

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/WOTOOOOOO/FAQ-tool/internal/fsops"
)

// Student is one CSV row. ID is the 1-based row number and is not stored.
type Student struct {
	ID           int     `csv:"-" json:"id"`
	Name         string  `csv:"name" json:"name"`
	Surname      string  `csv:"surname" json:"surname"`
	Nationality  string  `csv:"nationality" json:"nationality"`
	Semester     int     `csv:"semester" json:"semester"`
	AllCourses   string  `csv:"all_courses" json:"all_courses"`
	DiscountRate string  `csv:"discount_rate" json:"discount_rate"`
	TuitionFees  float64 `csv:"tuition_fees" json:"tuition_fees"`
}

// Courses splits AllCourses.
func (s Student) Courses() []string {
	if s.AllCourses == "" {
		return nil
	}
	parts := strings.Split(s.AllCourses, ", ")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Columns lists the CSV header in file order.
var Columns = []string{"name", "surname", "nationality", "semester", "all_courses", "discount_rate", "tuition_fees"}

// Store is the loaded, immutable student table.
type Store struct {
	rows []Student
}

// Open reads name from the data root. The file is opened O_RDONLY and closed
// before Open returns.
func Open(root *fsops.Root, name string) (*Store, error) {
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load parses CSV rows from r. A malformed row fails the load with an error
// naming the row (1-based, header excluded).
func Load(r io.Reader) (*Store, error) {
	var rows []Student
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) && pe.Line > 1 {
			return nil, fmt.Errorf("students: row %d: %w", pe.Line-1, pe.Err)
		}
		return nil, fmt.Errorf("students: %w", err)
	}
	for i := range rows {
		rows[i].ID = i + 1
		if err := validate(rows[i]); err != nil {
			return nil, fmt.Errorf("students: row %d: %w", i+1, err)
		}
	}
	return &Store{rows: rows}, nil
}

func validate(s Student) error {
	if strings.TrimSpace(s.Name) == "" && strings.TrimSpace(s.Surname) == "" {
		return errors.New("missing name and surname")
	}
	if s.Semester < 1 || s.Semester > 8 {
		return fmt.Errorf("semester %d out of range 1-8", s.Semester)
	}
	if _, err := ParseDiscount(s.DiscountRate); err != nil {
		return err
	}
	if s.TuitionFees < 0 {
		return fmt.Errorf("negative tuition %.2f", s.TuitionFees)
	}
	return nil
}

// ParseDiscount turns "50%" into 0.5.
func ParseDiscount(s string) (float64, error) {
	v := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("invalid discount rate %q", s)
	}
	return float64(n) / 100, nil
}

// FormatDiscount turns 0.3 into "30%".
func FormatDiscount(d float64) string {
	return fmt.Sprintf("%d%%", int(d*100+0.5))
}

// Len reports the number of loaded students.
func (s *Store) Len() int { return len(s.rows) }

// All returns a copy of every row.
func (s *Store) All() []Student {
	out := make([]Student, len(s.rows))
	copy(out, s.rows)
	return out
}
