package service

import "github.com/viant/embedflow/schema"

// DemoQuery is searched for after the demo records are stored.
const DemoQuery = "How do vector databases find similar text?"

// DemoRecords returns the fixed input set used by the CLI.
func DemoRecords() []schema.TextRecord {
	return []schema.TextRecord{
		{
			ID:      "1",
			Text:    "Vector databases store embeddings and find similar text with nearest neighbour search.",
			Payload: map[string]interface{}{"title": "Vector databases", "source": "demo"},
		},
		{
			ID:      "2",
			Text:    "Embeddings map text to fixed length vectors so that similar meaning lands close together.",
			Payload: map[string]interface{}{"title": "Embeddings", "source": "demo"},
		},
		{
			ID:      "3",
			Text:    "Cosine similarity compares the angle between two vectors regardless of their length.",
			Payload: map[string]interface{}{"title": "Cosine similarity", "source": "demo"},
		},
		{
			ID:      "4",
			Text:    "Sourdough bread needs a starter, flour, water and a long slow fermentation.",
			Payload: map[string]interface{}{"title": "Baking", "source": "demo"},
		},
	}
}
