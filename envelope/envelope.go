// Package envelope implements Envelope<Sig, Data>: a BLS-aggregated,
// occurrence-counted vote over an opaque payload. Acks and Nacks are both
// envelopes over different payload shapes, and fold the same way the
// teacher's quorum/static.go folds boolean responses — except here the
// fold is keyed per signer index and is summed rather than boolean, and
// the aggregated signature is BLS-merged rather than discarded.
package envelope

import (
	"fmt"

	"github.com/luxfi/crypto/bls"

	"github.com/luxfi/ackinacki/bkset"
	"github.com/luxfi/ackinacki/set"
)

// Envelope is a BLS-aggregated declaration about Data, carrying one
// occurrence count per signer that contributed to the aggregate
// signature.
type Envelope struct {
	AggregatedSignature *bls.Signature
	// SignatureOccurrences counts, per signer, how many independent
	// signatures over Data have been folded into AggregatedSignature.
	SignatureOccurrences map[bkset.SignerIndex]uint32
	Data                 []byte
}

// New returns a single-signer envelope.
func New(signer bkset.SignerIndex, sig *bls.Signature, data []byte) Envelope {
	return Envelope{
		AggregatedSignature: sig,
		SignatureOccurrences: map[bkset.SignerIndex]uint32{signer: 1},
		Data:                 data,
	}
}

// Merge folds other into e. Both envelopes must carry identical Data.
// If other contributes no signer that e lacks, e is returned unchanged,
// so re-merging an already-folded envelope is idempotent; otherwise the
// per-signer occurrence counts are summed and the two signatures are
// BLS-aggregated.
func Merge(e, other Envelope) (Envelope, error) {
	if string(e.Data) != string(other.Data) {
		return Envelope{}, fmt.Errorf("envelope: cannot merge envelopes over different data")
	}

	newSigners := false
	for signer, count := range other.SignatureOccurrences {
		if count > 0 && e.SignatureOccurrences[signer] == 0 {
			newSigners = true
			break
		}
	}
	if !newSigners {
		return e, nil
	}

	merged := make(map[bkset.SignerIndex]uint32, len(e.SignatureOccurrences)+len(other.SignatureOccurrences))
	for signer, count := range e.SignatureOccurrences {
		merged[signer] = count
	}
	for signer, count := range other.SignatureOccurrences {
		merged[signer] += count
	}
	// Occurrences are pruned of zeros.
	for signer, count := range merged {
		if count == 0 {
			delete(merged, signer)
		}
	}

	sig, err := bls.AggregateSignatures([]*bls.Signature{e.AggregatedSignature, other.AggregatedSignature})
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: BLS merge failed on supposedly-verified signatures: %w", err)
	}

	return Envelope{
		AggregatedSignature:  sig,
		SignatureOccurrences: merged,
		Data:                 e.Data,
	}, nil
}

// Signers returns the set of signer indices that contributed to e.
func (e Envelope) Signers() set.Set[bkset.SignerIndex] {
	out := make(set.Set[bkset.SignerIndex], len(e.SignatureOccurrences))
	for signer := range e.SignatureOccurrences {
		out.Add(signer)
	}
	return out
}

// Verify checks that AggregatedSignature validates against Data for the
// given bk-set, i.e. every occurring signer's public key at that bk-set
// version actually produced a signature folded into the aggregate.
func Verify(e Envelope, set *bkset.Set) (bool, error) {
	if e.AggregatedSignature == nil {
		return false, nil
	}
	pubkeys := make([]*bls.PublicKey, 0, len(e.SignatureOccurrences))
	for signer := range e.SignatureOccurrences {
		member, ok := set.Get(signer)
		if !ok {
			return false, fmt.Errorf("envelope: signer %d is not a member of the bk-set", signer)
		}
		pubkeys = append(pubkeys, member.PublicKey)
	}
	aggPub, err := bls.AggregatePublicKeys(pubkeys)
	if err != nil {
		return false, fmt.Errorf("envelope: aggregating public keys: %w", err)
	}
	return bls.Verify(aggPub, e.AggregatedSignature, e.Data), nil
}
