package version

import "fmt"

// ProtocolVersion identifies the wire/record schema two peers must
// agree on before exchanging envelopes: the BLS signature-occurrence
// layout, the block common-section shape, and the bk-set change record
// format. It is distinct from Application (the node build identity) —
// a node can ship a new build while still speaking the same protocol.
type ProtocolVersion struct {
	Major int
	Minor int
	Patch int
}

// CurrentProtocolVersion returns the protocol version this build
// speaks.
func CurrentProtocolVersion() ProtocolVersion {
	return ProtocolVersion{
		Major: 1,
		Minor: 0,
		Patch: 0,
	}
}

// Compatible reports whether two peers speaking these protocol
// versions can exchange envelopes: only the major component needs to
// match, matching Application.Compatible's same major-only rule.
func (v ProtocolVersion) Compatible(other ProtocolVersion) bool {
	return v.Major == other.Major
}

// String returns the version as a string.
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
