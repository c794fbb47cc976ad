package store

// Result is a single ranked hit returned by the document search backend.
type Result struct {
	Kind        string `json:"kind"`
	ExcerptText string `json:"excerpt_text"`
	Title       string `json:"title,omitempty"`
	SourceURI   string `json:"source_uri"`
}

// Result kinds as reported by the search backend.
const (
	KindAnswer         = "ANSWER"
	KindQuestionAnswer = "QUESTION_ANSWER"
	KindDocument       = "DOCUMENT"
)
