package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/embedflow/service"
)

func envOf(values map[string]string) service.LookupEnv {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func TestRun_Hashing(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), &out, testr.New(t), envOf(map[string]string{
		service.EnvProvider:  service.ProviderHashing,
		service.EnvStoreURL:  "memory://",
		service.EnvDimension: "128",
	}))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "collection=demo_collection (created)")
	assert.Contains(t, lines[0], "stored=4")
	assert.True(t, strings.HasPrefix(lines[2], "1\t"))
	assert.True(t, strings.HasPrefix(lines[4], "3\t"))
}

func TestRun_ConfigFailure(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), &out, testr.New(t), envOf(map[string]string{
		service.EnvStoreURL: "memory://",
	}))
	require.Error(t, err)
	var stageErr *service.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "config", stageErr.Stage)
	assert.True(t, errors.Is(err, service.ErrConfiguration))
	assert.Empty(t, out.String())
}

func TestVerbosityFromEnv(t *testing.T) {
	assert.Equal(t, 0, verbosityFromEnv(envOf(nil)))
	assert.Equal(t, 1, verbosityFromEnv(envOf(map[string]string{envVerbose: "true"})))
	assert.Equal(t, 2, verbosityFromEnv(envOf(map[string]string{envVerbose: "2"})))
	assert.Equal(t, 0, verbosityFromEnv(envOf(map[string]string{envVerbose: "nope"})))
}
