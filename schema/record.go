package schema

// TextRecord is a caller supplied text with its identifier and payload metadata.
type TextRecord struct {
	ID      string                 `json:"id" yaml:"id"`
	Text    string                 `json:"text" yaml:"text"`
	Payload map[string]interface{} `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Point is a record persisted in a vector store collection, keyed by ID.
type Point struct {
	ID      string
	Vector  []float32
	Text    string
	Payload map[string]interface{}
}

// Result is a single ranked search hit. Higher scores are closer: for Euclid
// the score is the negated distance.
type Result struct {
	ID      string                 `json:"id"`
	Text    string                 `json:"text,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Score   float32                `json:"score"`
}

// NewPoint builds a point from a record and its embedding.
func NewPoint(record TextRecord, vector []float32) Point {
	return Point{ID: record.ID, Vector: vector, Text: record.Text, Payload: record.Payload}
}
