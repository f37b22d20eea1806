package survey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var moodAdjectives = []string{"Calm", "Tense", "Alert", "Drowsy", "Content"}

func TestScaleAdjective(t *testing.T) {
	scale, err := NewScale(moodAdjectives, true)
	require.NoError(t, err)
	for i, want := range moodAdjectives {
		got, err := scale.Adjective(i)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	for _, idx := range []int{-1, 5, 100} {
		_, err := scale.Adjective(idx)
		require.ErrorIs(t, err, ErrAdjectiveIndex)
	}
}

func TestScaleValueBasing(t *testing.T) {
	zero, err := NewScale(moodAdjectives, true)
	require.NoError(t, err)
	one, err := NewScale(moodAdjectives, false)
	require.NoError(t, err)

	v, err := zero.Value(0)
	require.NoError(t, err)
	require.Equal(t, 0, v)
	v, err = one.Value(4)
	require.NoError(t, err)
	require.Equal(t, 5, v)

	_, err = one.Value(5)
	require.ErrorIs(t, err, ErrSelectionRange)

	require.True(t, zero.Contains(0))
	require.False(t, zero.Contains(5))
	require.True(t, one.Contains(5))
	require.False(t, one.Contains(0))
}

func TestNewScaleRejectsWrongCardinality(t *testing.T) {
	_, err := NewScale(moodAdjectives[:4], true)
	require.Error(t, err)
	_, err = NewScale([]string{"a", "b", "", "d", "e"}, true)
	require.Error(t, err)
}
