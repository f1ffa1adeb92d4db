package llm

import "strings"

// DefaultReviewText is posted when neither known response shape yields any
// text. A shape mismatch degrades to this fixed string instead of failing
// the run.
const DefaultReviewText = "The review could not be generated from the model response."

// completionResponse covers both wire shapes the completion API is known to
// produce: a flat output text string, or a structured list of output items
// carrying content chunks.
type completionResponse struct {
	OutputText string       `json:"output_text"`
	Output     []outputItem `json:"output"`

	Error *apiError `json:"error"`
}

type outputItem struct {
	Type    string         `json:"type"`
	Content []contentChunk `json:"content"`
}

type contentChunk struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// responseReader extracts plain text from one known response shape.
type responseReader interface {
	extract(resp *completionResponse) (string, bool)
}

// flatTextReader handles the shape with a single top-level output text field.
type flatTextReader struct{}

func (flatTextReader) extract(resp *completionResponse) (string, bool) {
	text := strings.TrimSpace(resp.OutputText)
	return text, text != ""
}

// chunkedTextReader handles the shape with a structured list of output items,
// concatenating the text of every output_text chunk.
type chunkedTextReader struct{}

func (chunkedTextReader) extract(resp *completionResponse) (string, bool) {
	var sb strings.Builder
	for _, item := range resp.Output {
		if item.Type != "" && item.Type != "message" {
			continue
		}
		for _, chunk := range item.Content {
			if chunk.Type != "" && chunk.Type != "output_text" {
				continue
			}
			sb.WriteString(chunk.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	return text, text != ""
}

// responseReaders lists the known shapes in the order they are tried.
var responseReaders = []responseReader{
	flatTextReader{},
	chunkedTextReader{},
}

// extractText pulls review text out of a response, trying each known shape
// and falling back to DefaultReviewText when none of them matches.
func extractText(resp *completionResponse) string {
	for _, reader := range responseReaders {
		if text, ok := reader.extract(resp); ok {
			return text
		}
	}
	return DefaultReviewText
}
