// Package codec provides the versioned encoding used for blockstate's
// durable record format: every on-disk record is wrapped with the
// codec version that produced it, so a schema change (an added or
// dropped persistedBlockState field) can be detected on load instead of
// silently misreading stale records written by an older build.
package codec

import (
	"encoding/json"
	"fmt"
)

// CodecVersion identifies the schema a persisted record was written
// under.
type CodecVersion uint16

const (
	// CurrentVersion is the schema version this build writes and reads.
	CurrentVersion CodecVersion = 1
)

// Codec is the package-level codec used by blockstate.Repository.
var Codec = &JSONCodec{}

// JSONCodec implements versioned JSON encoding/decoding.
type JSONCodec struct{}

// record is the on-disk envelope: the version tag travels with the
// payload rather than being inferred from context, so Load can refuse a
// record it no longer knows how to interpret instead of misreading it.
type record struct {
	Version CodecVersion    `json:"v"`
	Payload json.RawMessage `json:"payload"`
}

// Marshal wraps v's JSON encoding in a version-tagged envelope. version
// must equal CurrentVersion: this codec does not downgrade a record to
// an older schema on write.
func (c *JSONCodec) Marshal(version CodecVersion, v interface{}) ([]byte, error) {
	if version != CurrentVersion {
		return nil, fmt.Errorf("codec: cannot write schema version %d, current is %d", version, CurrentVersion)
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(record{Version: version, Payload: payload})
}

// Unmarshal unwraps data's envelope and decodes its payload into v,
// returning the version the record was actually written under. Decoding
// fails if the record's version does not match CurrentVersion, since
// this codec carries no migration path between schema versions.
func (c *JSONCodec) Unmarshal(data []byte, v interface{}) (CodecVersion, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, err
	}
	if rec.Version != CurrentVersion {
		return rec.Version, fmt.Errorf("codec: record schema version %d does not match current %d", rec.Version, CurrentVersion)
	}
	if err := json.Unmarshal(rec.Payload, v); err != nil {
		return rec.Version, err
	}
	return rec.Version, nil
}
