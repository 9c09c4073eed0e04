package envelope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ackinacki/bkset"
)

func TestMergeIsIdempotent(t *testing.T) {
	data := []byte("block-123")

	e1 := Envelope{SignatureOccurrences: map[bkset.SignerIndex]uint32{0: 1}, Data: data}
	e2 := Envelope{SignatureOccurrences: map[bkset.SignerIndex]uint32{1: 1}, Data: data}

	merged, err := Merge(e1, e2)
	require.NoError(t, err)
	require.Equal(t, map[bkset.SignerIndex]uint32{0: 1, 1: 1}, merged.SignatureOccurrences)

	again, err := Merge(merged, e1)
	require.NoError(t, err)
	require.Equal(t, merged.SignatureOccurrences, again.SignatureOccurrences)
}

func TestMergeRejectsMismatchedData(t *testing.T) {
	e1 := Envelope{SignatureOccurrences: map[bkset.SignerIndex]uint32{0: 1}, Data: []byte("a")}
	e2 := Envelope{SignatureOccurrences: map[bkset.SignerIndex]uint32{1: 1}, Data: []byte("b")}

	_, err := Merge(e1, e2)
	require.Error(t, err)
}

func TestSigners(t *testing.T) {
	e := Envelope{SignatureOccurrences: map[bkset.SignerIndex]uint32{0: 2, 3: 1}}
	signers := e.Signers()
	require.Len(t, signers, 2)
	_, ok := signers[bkset.SignerIndex(3)]
	require.True(t, ok)
}
