package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	id, err := Parse("12#34#567")
	require.NoError(t, err)
	assert.Equal(t, ID{Cat: 12, Subcat: 34, Post: 567}, id)
	assert.Equal(t, "12#34#567", id.String())
}

func TestParseInvalid(t *testing.T) {
	tests := []string{
		"",
		"12#34",
		"12#34#567#8",
		"12##567",
		"a#34#567",
		"12#34#-1",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.ErrorIs(t, err, ErrUnresolved)
		})
	}
}

func TestFromParts(t *testing.T) {
	id, err := FromParts("13", " 1 ", "90745")
	require.NoError(t, err)
	assert.Equal(t, "13#1#90745", id.String())

	_, err = FromParts("13", "", "90745")
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.Contains(t, err.Error(), "subcat")
}
