package regulations

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/WOTOOOOOO/FAQ-tool/internal/telemetry"
	"github.com/WOTOOOOOO/FAQ-tool/internal/windowing"
)

// NoMatchMessage is returned when nothing in the document matches.
const NoMatchMessage = "No relevant passage was found in the university regulations for this question. " +
	"The regulations may not cover it; please rephrase or contact the student office."

// ServiceOptions tunes retrieval.
type ServiceOptions struct {
	TopK          int
	MinConfidence float64
	ContextRunes  int
}

// Answer is the tool-facing outcome of a regulations question.
type Answer struct {
	Text        string
	Hits        []Hit
	Confidence  float64
	NeedsReview bool
}

// Service answers questions from the index.
type Service struct {
	index *Index
	opts  ServiceOptions
	log   logrus.FieldLogger
}

func NewService(ix *Index, opts ServiceOptions, log logrus.FieldLogger) *Service {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	return &Service{index: ix, opts: opts, log: log.WithField("component", "regulations")}
}

// Answer retrieves the best passages for question and formats them with
// citations. Only text stored from the indexed document is returned.
func (s *Service) Answer(ctx context.Context, question string) (Answer, error) {
	res, err := s.index.Search(ctx, question, s.opts.TopK)
	if err != nil {
		return Answer{}, err
	}
	telemetry.EmitRetrievalScore(ctx, len(res.Hits), res.Confidence, s.opts.MinConfidence)

	ans := Answer{
		Hits:        res.Hits,
		Confidence:  res.Confidence,
		NeedsReview: res.Confidence < s.opts.MinConfidence,
	}
	s.log.WithFields(logrus.Fields{
		"hits":         len(res.Hits),
		"confidence":   res.Confidence,
		"needs_review": ans.NeedsReview,
	}).Debug("regulations searched")

	if len(res.Hits) == 0 {
		ans.Text = NoMatchMessage
		return ans, nil
	}

	passages := make([]string, len(res.Hits))
	for i, h := range res.Hits {
		passages[i] = fmt.Sprintf("%s\n%s", Citation(h.Chunk), h.Text)
	}
	packed, _ := windowing.PackTexts(passages, s.opts.ContextRunes)

	var b strings.Builder
	b.WriteString("Relevant passages from the university regulations:\n\n")
	b.WriteString(strings.Join(packed, "\n\n"))
	if ans.NeedsReview {
		fmt.Fprintf(&b, "\n\n(Low retrieval confidence %.2f: the passages may not answer the question directly.)", res.Confidence)
	}
	ans.Text = b.String()
	return ans, nil
}

// Citation renders the position of c as "[chunk N, lines a-b]".
func Citation(c Chunk) string {
	return fmt.Sprintf("[chunk %d, lines %d-%d]", c.Seq, c.StartLine, c.EndLine)
}
