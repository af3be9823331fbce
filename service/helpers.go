package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/viant/embedflow/schema"
	"github.com/viant/embedflow/vectordb"
	"github.com/viant/embedflow/vectordb/meta"
)

type usageEmbedder interface {
	EmbedDocumentsWithUsage(ctx context.Context, docs []string) ([][]float32, int, error)
}

// prepareRecords validates the batch and collapses duplicate IDs: the last
// record wins and takes the position of the first occurrence.
func prepareRecords(op string, records []schema.TextRecord) ([]schema.TextRecord, error) {
	if len(records) == 0 {
		return nil, validationError(op, "records", "at least one record is required")
	}
	positions := make(map[string]int, len(records))
	out := make([]schema.TextRecord, 0, len(records))
	for i, record := range records {
		if strings.TrimSpace(record.ID) == "" {
			return nil, validationError(op, fmt.Sprintf("records[%d].id", i), "id is required")
		}
		if strings.TrimSpace(record.Text) == "" {
			return nil, validationError(op, fmt.Sprintf("records[%d].text", i), "text is required")
		}
		for key := range record.Payload {
			if meta.IsReserved(key) {
				return nil, validationError(op, fmt.Sprintf("records[%d].payload.%s", i, key), "keys starting with %q are reserved", meta.ReservedPrefix)
			}
		}
		if pos, ok := positions[record.ID]; ok {
			out[pos] = record
			continue
		}
		positions[record.ID] = len(out)
		out = append(out, record)
	}
	return out, nil
}

// embedTexts embeds texts in batches, preserving input order.
func (s *Service) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	totalTokens := 0
	for i := 0; i < len(texts); i += s.batchSize {
		end := i + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]
		var (
			vecs   [][]float32
			tokens int
			err    error
		)
		if ue, ok := s.embedder.(usageEmbedder); ok {
			vecs, tokens, err = ue.EmbedDocumentsWithUsage(ctx, batch)
			totalTokens += tokens
		} else {
			vecs, err = s.embedder.EmbedDocuments(ctx, batch)
		}
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(batch))
		}
		s.logger.V(1).Info("embedded batch", "from", i, "to", end, "tokens", tokens)
		out = append(out, vecs...)
	}
	if totalTokens > 0 {
		s.logger.V(1).Info("embedding usage", "tokens", totalTokens)
	}
	return out, nil
}

// checkEmbedding rejects vectors of the wrong dimension and vectors with no
// direction, which no distance can rank.
func checkEmbedding(op, field, what string, vector []float32, desc schema.Descriptor) error {
	if len(vector) != desc.Dimension {
		return configError(op, "collection.dimension",
			"%s embedding has %d dimensions, collection %q expects %d", what, len(vector), desc.Name, desc.Dimension)
	}
	if norm := vectordb.Norm(vector); norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return validationError(op, field, "%s embedding has no direction (norm %v); the text has no embeddable content", what, norm)
	}
	return nil
}
