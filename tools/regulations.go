package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/WOTOOOOOO/FAQ-tool/internal/regulations"
)

const RegulationsToolName = "query_regulations"

type RegulationsInput struct {
	Question string `json:"question" jsonschema_description:"The user's question about university rules, fees, exams, deadlines or procedures."`
}

var RegulationsInputSchema = GenerateSchema[RegulationsInput]()

// Answerer is the part of regulations.Service the tool needs.
type Answerer interface {
	Answer(ctx context.Context, question string) (regulations.Answer, error)
}

func regulationsTool(svc Answerer) ToolDefinition {
	return ToolDefinition{
		Name: RegulationsToolName,
		Description: "Search the university regulations document and return the most relevant passages with citations " +
			"[chunk N, lines a-b]. Use for questions about study rules, tuition fees and discounts, examinations, resits, " +
			"leave of absence, internships and the thesis. Answer only from the returned passages.",
		InputSchema: RegulationsInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			in, msg, ok := decode[RegulationsInput](RegulationsToolName, input)
			if !ok {
				return msg, nil
			}
			if strings.TrimSpace(in.Question) == "" {
				return "Please provide a question to search the regulations for.", nil
			}
			if svc == nil {
				return unavailable("regulations"), nil
			}
			ans, err := svc.Answer(ctx, in.Question)
			if err != nil {
				return "", err
			}
			if ans.NeedsReview {
				MarkForReview(ctx, fmt.Sprintf("low retrieval confidence %.2f", ans.Confidence))
			}
			return ans.Text, nil
		},
	}
}

func unavailable(source string) string {
	return fmt.Sprintf("The %s data source is not available right now.", source)
}
