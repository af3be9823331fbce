package meta

import "strings"

func GetString(metadata map[string]any, key string) string {
	if value, ok := metadata[key]; ok {
		text, _ := value.(string)
		return text
	}
	return ""
}

// IsReserved reports whether key is owned by the stores.
func IsReserved(key string) bool {
	return strings.HasPrefix(key, ReservedPrefix)
}

// Decorate returns a copy of payload with the record ID and text added.
func Decorate(payload map[string]any, id, text string) map[string]any {
	out := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		out[k] = v
	}
	out[RecordIDKey] = id
	out[TextKey] = text
	return out
}

// Strip splits a stored payload into the record ID, text and the caller payload.
func Strip(stored map[string]any) (id, text string, payload map[string]any) {
	id = GetString(stored, RecordIDKey)
	text = GetString(stored, TextKey)
	payload = make(map[string]any, len(stored))
	for k, v := range stored {
		if IsReserved(k) {
			continue
		}
		payload[k] = v
	}
	return id, text, payload
}
