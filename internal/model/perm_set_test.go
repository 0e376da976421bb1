package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermSet_Has(t *testing.T) {
	assert.True(t, PermSet{PermRead}.Has(PermRead))
	assert.False(t, PermSet{PermRead}.Has(PermWrite))

	// Admin implies everything
	assert.True(t, PermSet{PermAdmin}.Has(PermRead))
	assert.True(t, PermSet{PermAdmin}.Has(PermWrite))
	assert.True(t, PermSet{PermAdmin}.Has(PermAdmin))
}

func TestPermSet_Valid(t *testing.T) {
	assert.True(t, PermSet{PermRead, PermWrite}.Valid())
	assert.False(t, PermSet{}.Valid())
	assert.False(t, PermSet{"root"}.Valid())
}

func TestPermSet_ValueScan(t *testing.T) {
	v, err := PermSet{PermRead, PermWrite}.Value()
	require.NoError(t, err)
	assert.Equal(t, "read,write", v)

	var p PermSet
	require.NoError(t, p.Scan("read,write"))
	assert.Equal(t, PermSet{PermRead, PermWrite}, p)

	require.NoError(t, p.Scan(nil))
	assert.Empty(t, p)

	require.NoError(t, p.Scan([]byte("admin")))
	assert.Equal(t, PermSet{PermAdmin}, p)
}

func TestPermSet_ValueRejectsUnknown(t *testing.T) {
	_, err := PermSet{"sudo"}.Value()
	assert.Error(t, err)
}
