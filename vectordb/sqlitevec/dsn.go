package sqlitevec

import (
	"fmt"
	"strings"
	"time"
)

const defaultBusyTimeout = 5 * time.Second

func isMemoryDSN(dsn string) bool {
	lower := strings.ToLower(dsn)
	return lower == ":memory:" || strings.HasPrefix(lower, "file::memory:") || strings.Contains(lower, "mode=memory")
}

// withPragmas enables WAL and a busy timeout on file databases unless the
// DSN already sets them.
func withPragmas(dsn string, busyTimeout time.Duration) string {
	if dsn == "" || isMemoryDSN(dsn) {
		return dsn
	}
	lower := strings.ToLower(dsn)
	if !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addPragma(dsn, "journal_mode(WAL)")
	}
	if busyTimeout > 0 && !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addPragma(dsn, fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	}
	return dsn
}

func addPragma(dsn, pragma string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}
