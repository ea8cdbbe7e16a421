package vars_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethanis/pipecache/internal/adapters/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_WritesAgentContract(t *testing.T) {
	var out bytes.Buffer
	sink := vars.NewWithWriter(&out, "")

	require.NoError(t, sink.Set("CACHE_RESTORED", "true"))
	assert.Equal(t, "CACHE_RESTORED=true\n", out.String())
}

func TestSet_AppendsToOutputFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "outputs")
	var out bytes.Buffer
	sink := vars.NewWithWriter(&out, outputFile)

	require.NoError(t, sink.Set("CACHE_RESTORED", "inexact"))
	require.NoError(t, sink.Set("CACHE_KEY", "npm|Linux"))

	content, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Equal(t, "CACHE_RESTORED=inexact\nCACHE_KEY=npm|Linux\n", string(content))
	assert.Equal(t, out.String(), string(content), "stream and file carry the same lines")
}

func TestSet_RepeatedValueIsNoOp(t *testing.T) {
	var out bytes.Buffer
	sink := vars.NewWithWriter(&out, "")

	require.NoError(t, sink.Set("CACHE_RESTORED", "false"))
	require.NoError(t, sink.Set("CACHE_RESTORED", "false"))
	assert.Equal(t, "CACHE_RESTORED=false\n", out.String())
}

func TestSet_NewValueWritesAgain(t *testing.T) {
	var out bytes.Buffer
	sink := vars.NewWithWriter(&out, "")

	require.NoError(t, sink.Set("CACHE_RESTORED", "false"))
	require.NoError(t, sink.Set("CACHE_RESTORED", "true"))
	assert.Equal(t, "CACHE_RESTORED=false\nCACHE_RESTORED=true\n", out.String())
}

func TestSet_RejectsEmptyName(t *testing.T) {
	sink := vars.NewWithWriter(&bytes.Buffer{}, "")
	require.Error(t, sink.Set("", "true"))
}
