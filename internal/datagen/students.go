package datagen

import (
	"io"
	"math"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gocarina/gocsv"

	"github.com/WOTOOOOOO/FAQ-tool/internal/fsops"
	"github.com/WOTOOOOOO/FAQ-tool/internal/students"
)

const (
	StudentsCreated = "Students have been created"
	StudentsExist   = "Students already exist"
)

// Discounts are the possible tuition discounts.
var Discounts = []float64{0, 0.3, 0.5, 1}

// CoursesBySemester is the fixed course catalogue, index 0 = semester 1.
var CoursesBySemester = [8][]string{
	{"Introduction to Informatics 1", "Introduction to Computer Architecture", "Discrete Structures",
		"Fundamentals of Programming (Exercises & Laboratory)", "English 1"},
	{"Introduction to Informatics 2", "Basic Principles of Operating Systems and System Software",
		"Analysis for Informatics", "Laboratory: Computer Organization and Computer Architecture", "English 2"},
	{"Databases 1", "Fundamentals of Algorithms and Data Structure", "Linear Algebra for Informatics",
		"Minor subject 1", "Minor subject 2"},
	{"Scripting Languages", "Introduction to Theory of Computation", "Discrete Probability Theory",
		"Minor subject 3", "Minor subject 4"},
	{"Numerical Programming", "Introduction to Software Engineering", "Minor subject 5",
		"Elective 1", "Minor subject 6"},
	{"Introduction to Computer Networking and Distributed Systems", "Databases 2", "Elective 2",
		"Software Engineering Practical Course (Project System Development)", "Minor subject 7"},
	{"Elective 3", "Elective 4", "Elective 5", "Internship"},
	{"Elective 6", "Elective 7", "Bachelor's Thesis/Capstone Project"},
}

// StudentOptions configures GenerateStudents.
type StudentOptions struct {
	Count       int
	CoursePrice float64
	Seed        uint64 // 0 picks a random seed
}

// Students builds n synthetic students. Same seed, same rows.
func Students(opts StudentOptions) []students.Student {
	r := newRand(opts.Seed)
	faker := gofakeit.New(r.Uint64())

	out := make([]students.Student, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		semester := between(r, 1, 8)
		var courses []string
		for s := 0; s < semester; s++ {
			avail := CoursesBySemester[s]
			n := between(r, 2, len(avail))
			for _, j := range r.Perm(len(avail))[:n] {
				courses = append(courses, avail[j])
			}
		}
		discount := Discounts[r.IntN(len(Discounts))]
		tuition := float64(len(courses)) * opts.CoursePrice * (1 - discount)

		out = append(out, students.Student{
			ID:           i + 1,
			Name:         faker.FirstName(),
			Surname:      faker.LastName(),
			Nationality:  faker.Country(),
			Semester:     semester,
			AllCourses:   strings.Join(courses, ", "),
			DiscountRate: students.FormatDiscount(discount),
			TuitionFees:  math.Round(tuition*100) / 100,
		})
	}
	return out
}

// GenerateStudents writes the student CSV to name under root unless it
// already exists.
func GenerateStudents(root *fsops.Root, name string, opts StudentOptions) (Outcome, error) {
	rows := Students(opts)
	err := root.CreateFile(name, func(w io.Writer) error {
		return gocsv.Marshal(rows, w)
	})
	if alreadyExists(err) {
		return Outcome{Message: StudentsExist}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Created: true, Count: len(rows), Message: StudentsCreated}, nil
}
