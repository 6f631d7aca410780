package seq2seq_data

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

// SplitSentences
// Puts every sentence of text on its own line, the layout that
// sentence-level ROUGE scoring and Pegasus-style targets expect.
func SplitSentences(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	doc, err := prose.NewDocument(
		text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithTokenization(false),
	)
	if err != nil {
		return text, err
	}
	sentences := doc.Sentences()
	lines := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		if trimmed := strings.TrimSpace(sentence.Text); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}
