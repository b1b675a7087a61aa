package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTest = `// Copyright header
/*---
description: Promise.prototype.then ordering
includes: [promiseHelper.js, compareArray.js]
flags: [async, onlyStrict]
features: [Promise, Symbol.iterator]
negative:
  phase: runtime
  type: TypeError
---*/
print(1);
`

func TestParseMetadata(t *testing.T) {
	meta, err := parseMetadata(sampleTest)
	require.NoError(t, err)
	assert.Equal(t, "Promise.prototype.then ordering", meta.Description)
	assert.Equal(t, []string{"promiseHelper.js", "compareArray.js"}, meta.Includes)
	assert.Equal(t, []string{"Promise", "Symbol.iterator"}, meta.Features)
	require.NotNil(t, meta.Negative)
	assert.Equal(t, "runtime", meta.Negative.Phase)
	assert.Equal(t, "TypeError", meta.Negative.Type)
	assert.True(t, meta.hasFlag("async"))
	assert.Equal(t, []bool{true}, meta.modes())
	assert.Equal(t,
		[]string{"assert.js", "sta.js", "doneprintHandle.js", "promiseHelper.js", "compareArray.js"},
		meta.harnessIncludes())
}

func TestParseMetadataMissingHeader(t *testing.T) {
	meta, err := parseMetadata("var x = 1;")
	require.NoError(t, err)
	assert.Nil(t, meta.Negative)
	assert.Equal(t, []bool{false, true}, meta.modes())
}

func TestParseMetadataRawFlag(t *testing.T) {
	meta, err := parseMetadata("/*---\nflags: [raw]\n---*/")
	require.NoError(t, err)
	assert.Empty(t, meta.harnessIncludes())
	assert.Equal(t, []bool{false}, meta.modes())
}

func TestParseMetadataInvalidYAML(t *testing.T) {
	_, err := parseMetadata("/*---\nflags: [unterminated\n---*/")
	require.Error(t, err)
}
