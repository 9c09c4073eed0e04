// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package set_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ackinacki/bkset"
	"github.com/luxfi/ackinacki/set"
)

func TestOf(t *testing.T) {
	require := require.New(t)

	s1 := set.Of[int]()
	require.Equal(0, s1.Len())

	s2 := set.Of(1, 2, 3)
	require.Equal(3, s2.Len())
	require.True(s2.Contains(1))
	require.True(s2.Contains(2))
	require.True(s2.Contains(3))

	s3 := set.Of(1, 2, 2, 3, 3, 3)
	require.Equal(3, s3.Len())
}

func TestAdd(t *testing.T) {
	require := require.New(t)

	s := make(set.Set[string])
	require.Equal(0, s.Len())

	s.Add("a")
	require.Equal(1, s.Len())
	require.True(s.Contains("a"))

	s.Add("b", "c")
	require.Equal(3, s.Len())
	require.True(s.Contains("b"))
	require.True(s.Contains("c"))

	s.Add("a")
	require.Equal(3, s.Len())
}

func TestContains(t *testing.T) {
	require := require.New(t)

	s := set.Of("a", "b", "c")
	require.True(s.Contains("a"))
	require.True(s.Contains("b"))
	require.True(s.Contains("c"))
	require.False(s.Contains("d"))
}

func TestRemove(t *testing.T) {
	require := require.New(t)

	s := set.Of(1, 2, 3, 4, 5)

	s.Remove(3)
	require.Equal(4, s.Len())
	require.False(s.Contains(3))

	s.Remove(1, 5)
	require.Equal(2, s.Len())
	require.False(s.Contains(1))
	require.False(s.Contains(5))
	require.True(s.Contains(2))
	require.True(s.Contains(4))

	s.Remove(10)
	require.Equal(2, s.Len())
}

func TestClear(t *testing.T) {
	require := require.New(t)

	s := set.Of(1, 2, 3)
	require.Equal(3, s.Len())

	s.Clear()
	require.Equal(0, s.Len())
	require.False(s.Contains(1))
}

func TestList(t *testing.T) {
	require := require.New(t)

	s := set.Of(1, 2, 3)
	list := s.List()
	require.Len(list, 3)

	listSet := set.Of(list...)
	require.True(listSet.Equals(s))
}

func TestEquals(t *testing.T) {
	require := require.New(t)

	s1 := set.Of(1, 2, 3)
	s2 := set.Of(1, 2, 3)
	s3 := set.Of(1, 2)
	s4 := set.Of(1, 2, 3, 4)
	s5 := set.Of[int]()
	s6 := set.Of[int]()

	require.True(s1.Equals(s2))
	require.True(s2.Equals(s1))
	require.False(s1.Equals(s3))
	require.False(s1.Equals(s4))
	require.True(s5.Equals(s6))
}

func TestClone(t *testing.T) {
	require := require.New(t)

	s1 := set.Of(1, 2, 3)
	s2 := s1.Clone()

	require.True(s1.Equals(s2))

	s2.Add(4)
	require.False(s1.Equals(s2))
	require.Equal(3, s1.Len())
	require.Equal(4, s2.Len())
}

// TestSignerIndexSet exercises set.Set against the actual domain key
// type it backs: bkset's SignerIndex, the way blockstate and attestation
// use it to track which block keepers attested an ancestor block.
func TestSignerIndexSet(t *testing.T) {
	require := require.New(t)

	signers := set.Of[bkset.SignerIndex](1, 2, 3)
	require.Equal(3, signers.Len())
	require.True(signers.Contains(bkset.SignerIndex(2)))

	signers.Remove(bkset.SignerIndex(2))
	require.False(signers.Contains(bkset.SignerIndex(2)))
	require.Equal(2, signers.Len())

	clone := signers.Clone()
	clone.Add(bkset.SignerIndex(9))
	require.False(signers.Equals(clone))
}
