// Copyright (C) 2020-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplicationString(t *testing.T) {
	a := &Application{Name: "ackinacki-node", Major: 1, Minor: 2, Patch: 3}
	require.Equal(t, "ackinacki-node-1.2.3", a.String())
}

func TestApplicationCompareOrdersByMajorThenMinorThenPatch(t *testing.T) {
	older := &Application{Major: 1, Minor: 0, Patch: 0}
	newer := &Application{Major: 1, Minor: 1, Patch: 0}

	require.Equal(t, -1, older.Compare(newer))
	require.Equal(t, 1, newer.Compare(older))
	require.Equal(t, 0, older.Compare(older))
	require.True(t, older.Before(newer))
	require.False(t, newer.Before(older))
}

func TestApplicationCompatibleIgnoresMinorPatchAndName(t *testing.T) {
	v1 := &Application{Name: "a", Major: 1, Minor: 2, Patch: 3}
	v2 := &Application{Name: "b", Major: 1, Minor: 9, Patch: 0}
	v3 := &Application{Name: "a", Major: 2, Minor: 2, Patch: 3}

	require.True(t, v1.Compatible(v2))
	require.False(t, v1.Compatible(v3))
}

func TestDefaultVersion(t *testing.T) {
	v := DefaultVersion()
	require.Equal(t, "ackinacki-node", v.Name)
	require.Equal(t, "ackinacki-node-1.0.0", v.String())
}

func TestProtocolVersionCompatible(t *testing.T) {
	current := CurrentProtocolVersion()
	older := ProtocolVersion{Major: current.Major, Minor: current.Minor - 1, Patch: 0}
	incompatible := ProtocolVersion{Major: current.Major + 1}

	require.True(t, current.Compatible(older))
	require.False(t, current.Compatible(incompatible))
	require.Equal(t, "1.0.0", current.String())
}
