package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCodecRoundTrip(t *testing.T) {
	original := []float32{0.1, -2.5, 0, 1e-8, 42}

	decoded, err := DecodeVector(EncodeVector(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeVectorRejectsTruncatedData(t *testing.T) {
	data := EncodeVector([]float32{1, 2, 3})

	_, err := DecodeVector(data[:len(data)-1])
	assert.Error(t, err)
}

func TestEncodeVectorEmpty(t *testing.T) {
	decoded, err := DecodeVector(EncodeVector(nil))
	require.NoError(t, err)
	assert.Empty(t, decoded)
}
