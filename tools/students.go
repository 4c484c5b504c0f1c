package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/WOTOOOOOO/FAQ-tool/internal/students"
)

const StudentsToolName = "query_student_data"

type StudentQueryInput struct {
	Question     string   `json:"question" jsonschema_description:"The user's original question, verbatim."`
	Name         string   `json:"name,omitempty" jsonschema_description:"First name (case-insensitive substring)."`
	Surname      string   `json:"surname,omitempty" jsonschema_description:"Surname (case-insensitive substring)."`
	Nationality  string   `json:"nationality,omitempty" jsonschema_description:"Country of nationality (case-insensitive substring)."`
	Semester     int      `json:"semester,omitempty" jsonschema_description:"Exact semester, 1 to 8."`
	Course       string   `json:"course,omitempty" jsonschema_description:"Course name the student takes (case-insensitive substring)."`
	DiscountRate string   `json:"discount_rate,omitempty" jsonschema_description:"Exact discount rate: 0%, 30%, 50% or 100%."`
	MinTuition   *float64 `json:"min_tuition,omitempty" jsonschema_description:"Minimum tuition fee, inclusive."`
	MaxTuition   *float64 `json:"max_tuition,omitempty" jsonschema_description:"Maximum tuition fee, inclusive."`
	Aggregate    string   `json:"aggregate,omitempty" jsonschema:"enum=list,enum=count,enum=avg_tuition,enum=sum_tuition,enum=min_tuition,enum=max_tuition,enum=by_nationality,enum=by_semester" jsonschema_description:"Result shape; list when omitted."`
	Limit        int      `json:"limit,omitempty" jsonschema_description:"Maximum rows for list results (default 20, max 100)."`
}

var StudentQueryInputSchema = GenerateSchema[StudentQueryInput]()

func studentsTool(store *students.Store) ToolDefinition {
	return ToolDefinition{
		Name: StudentsToolName,
		Description: fmt.Sprintf("Read-only queries over the student records table (columns: %s). "+
			"Filter rows and optionally aggregate them. Requests to change, add or delete data are refused.",
			strings.Join(students.Columns, ", ")),
		InputSchema: StudentQueryInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			in, msg, ok := decode[StudentQueryInput](StudentsToolName, input)
			if !ok {
				return msg, nil
			}
			if (students.Guard{}).Classify(in.Question) == students.Modify {
				return students.BlockedMessage, nil
			}
			if store == nil {
				return unavailable("student records"), nil
			}
			res, err := store.Query(students.Filter{
				Name:         in.Name,
				Surname:      in.Surname,
				Nationality:  in.Nationality,
				Semester:     in.Semester,
				Course:       in.Course,
				DiscountRate: in.DiscountRate,
				MinTuition:   in.MinTuition,
				MaxTuition:   in.MaxTuition,
				Aggregate:    students.Aggregate(in.Aggregate),
				Limit:        in.Limit,
			})
			if err != nil {
				return fmt.Sprintf("Could not run the student query: %v", err), nil
			}
			return res.Text(), nil
		},
	}
}
