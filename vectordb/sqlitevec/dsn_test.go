package sqlitevec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithPragmas(t *testing.T) {
	testCases := []struct {
		description string
		dsn         string
		expect      string
	}{
		{description: "file path", dsn: "/tmp/vec.sqlite", expect: "/tmp/vec.sqlite?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
		{description: "existing query", dsn: "file:/tmp/vec.db?cache=shared", expect: "file:/tmp/vec.db?cache=shared&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
		{description: "explicit pragma", dsn: "/tmp/vec.db?_pragma=journal_mode(DELETE)", expect: "/tmp/vec.db?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)"},
		{description: "memory", dsn: ":memory:", expect: ":memory:"},
		{description: "memory uri", dsn: "file:vec?mode=memory&cache=shared", expect: "file:vec?mode=memory&cache=shared"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, withPragmas(testCase.dsn, 5*time.Second), testCase.description)
	}
}
