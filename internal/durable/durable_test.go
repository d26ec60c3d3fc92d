package durable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_PutRemoveReplay(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("D0", "M00", "SpeechSynthesizer", "Speak", nil))
	require.NoError(t, s.Put("D0", "M01", "SpeechSynthesizer", "Speak", nil))

	recs, err := s.ReplayAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)

	require.NoError(t, s.Remove("D0", "M00"))

	recs, err = s.ReplayAll()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "M01", recs[0].MessageID)
}

func TestStore_RemoveMissingIsNotAnError(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Remove("nope", "nope"))
}

func TestNilStore_AllOperationsAreNoops(t *testing.T) {
	var s *Store

	require.NoError(t, s.Put("D0", "M00", "SpeechSynthesizer", "Speak", nil))
	require.NoError(t, s.Remove("D0", "M00"))
	require.NoError(t, s.Close())

	recs, err := s.ReplayAll()
	require.NoError(t, err)
	require.Nil(t, recs)
}
