package repository

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireConsistentIndex(t *testing.T, s *AccessStore, student string) {
	t.Helper()
	list := s.viewers[student]
	require.Len(t, s.index[student], len(list))
	for viewer, granted := range s.granted[student] {
		require.True(t, granted)
		pos, ok := s.index[student][viewer]
		require.True(t, ok, "viewer %s missing from index", viewer)
		require.Equal(t, viewer, list[pos])
	}
}

func TestAccessStoreGrantRevoke(t *testing.T) {
	s := NewAccessStore()
	require.NoError(t, s.Grant("s1", "v1"))
	require.NoError(t, s.Grant("s1", "v2"))
	require.NoError(t, s.Grant("s1", "v3"))
	require.ErrorIs(t, s.Grant("s1", "v2"), ErrAccessExists)
	require.Equal(t, []string{"v1", "v2", "v3"}, s.List("s1"))

	require.NoError(t, s.Revoke("s1", "v1"))
	require.Equal(t, []string{"v3", "v2"}, s.List("s1"))
	require.Equal(t, 0, s.index["s1"]["v3"])
	require.False(t, s.Has("s1", "v1"))
	_, indexed := s.index["s1"]["v1"]
	require.False(t, indexed)
	requireConsistentIndex(t, s, "s1")

	require.ErrorIs(t, s.Revoke("s1", "v1"), ErrAccessMissing)
	require.ErrorIs(t, s.Revoke("s2", "v1"), ErrAccessMissing)
}

func TestAccessStoreRevokeLast(t *testing.T) {
	s := NewAccessStore()
	require.NoError(t, s.Grant("s1", "v1"))
	require.NoError(t, s.Grant("s1", "v2"))
	require.NoError(t, s.Revoke("s1", "v2"))
	require.Equal(t, []string{"v1"}, s.List("s1"))
	require.NoError(t, s.Revoke("s1", "v1"))
	require.Empty(t, s.List("s1"))
	require.NoError(t, s.Grant("s1", "v2"))
	requireConsistentIndex(t, s, "s1")
}

func TestAccessStoreListIsCopy(t *testing.T) {
	s := NewAccessStore()
	require.NoError(t, s.Grant("s1", "v1"))
	list := s.List("s1")
	list[0] = "tampered"
	require.Equal(t, []string{"v1"}, s.List("s1"))
}

func TestAccessStoreIndexUnderRandomOperations(t *testing.T) {
	s := NewAccessStore()
	rng := rand.New(rand.NewSource(42))
	expected := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		viewer := fmt.Sprintf("v%d", rng.Intn(25))
		if rng.Intn(2) == 0 {
			err := s.Grant("s1", viewer)
			if expected[viewer] {
				require.ErrorIs(t, err, ErrAccessExists)
			} else {
				require.NoError(t, err)
				expected[viewer] = true
			}
		} else {
			err := s.Revoke("s1", viewer)
			if expected[viewer] {
				require.NoError(t, err)
				delete(expected, viewer)
			} else {
				require.ErrorIs(t, err, ErrAccessMissing)
			}
		}
		require.Equal(t, expected[viewer], s.Has("s1", viewer))
	}
	requireConsistentIndex(t, s, "s1")
	require.Len(t, s.List("s1"), len(expected))
}
