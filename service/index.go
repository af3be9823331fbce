package service

import (
	"context"
	"fmt"

	"github.com/viant/embedflow/schema"
)

const opStore = "embed_and_store"

// EmbedAndStore embeds every record and upserts the points into the
// descriptor's collection. Nothing is written unless every record was
// embedded with the collection's dimension. It returns the number of
// distinct points written.
func (s *Service) EmbedAndStore(ctx context.Context, records []schema.TextRecord, desc schema.Descriptor) (int, error) {
	if err := checkDescriptor(opStore, desc); err != nil {
		return 0, err
	}
	records, err := prepareRecords(opStore, records)
	if err != nil {
		return 0, err
	}
	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}
	vecs, err := s.embedTexts(ctx, texts)
	if err != nil {
		return 0, &Error{Kind: KindProvider, Op: opStore, Err: err}
	}
	points := make([]schema.Point, len(records))
	for i, record := range records {
		if err := checkEmbedding(opStore, "records.text", fmt.Sprintf("record %q", record.ID), vecs[i], desc); err != nil {
			return 0, err
		}
		points[i] = schema.NewPoint(record, vecs[i])
	}
	if err := s.store.Upsert(ctx, desc.Name, points); err != nil {
		return 0, storeError(opStore, err)
	}
	s.logger.Info("points stored", "collection", desc.Name, "count", len(points))
	return len(points), nil
}
