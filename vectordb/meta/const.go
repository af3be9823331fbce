package meta

const (
	// ReservedPrefix marks payload keys owned by the stores.
	ReservedPrefix = "_"
	// RecordIDKey keeps the caller ID where the store key differs from it.
	RecordIDKey = "_record_id"
	// TextKey keeps the embedded text alongside the payload.
	TextKey = "_text"
)
