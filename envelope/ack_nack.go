package envelope

import "github.com/luxfi/ackinacki/types"

// AckEnvelope is a block keeper's attestation that a given block is
// valid: Data is the attested block's identifier, opaquely encoded so
// the BLS signature covers exactly what was signed.
type AckEnvelope struct {
	BlockID types.BlockIdentifier
	Envelope
}

// NackEnvelope is a block keeper's declaration that a given block (or a
// message within it) is invalid; the builder's slash-preprocessing stage
// turns accumulated nacks into synthetic slash messages.
type NackEnvelope struct {
	BlockID types.BlockIdentifier
	Reason  string
	Envelope
}

// MergeAcks folds b into a, requiring both to attest the same block.
func MergeAcks(a, b AckEnvelope) (AckEnvelope, error) {
	merged, err := Merge(a.Envelope, b.Envelope)
	if err != nil {
		return AckEnvelope{}, err
	}
	return AckEnvelope{BlockID: a.BlockID, Envelope: merged}, nil
}

// MergeNacks folds b into a, requiring both to target the same block.
func MergeNacks(a, b NackEnvelope) (NackEnvelope, error) {
	merged, err := Merge(a.Envelope, b.Envelope)
	if err != nil {
		return NackEnvelope{}, err
	}
	return NackEnvelope{BlockID: a.BlockID, Reason: a.Reason, Envelope: merged}, nil
}
