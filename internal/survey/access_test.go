package survey

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAccessMethod(t *testing.T) {
	for input, want := range map[string]AccessMethod{
		"":           Sequential,
		"Sequential": Sequential,
		" random ":   Random,
		"randomized": Random,
		"shuffle":    Random,
		"in order":   Sequential,
	} {
		got, err := ParseAccessMethod(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}
	_, err := ParseAccessMethod("alphabetical")
	require.Error(t, err)
}

func TestSequentialOrder(t *testing.T) {
	require.Equal(t, []int{0, 1, 2, 3}, Sequential.Order(4, 99))
	require.Nil(t, Sequential.Order(0, 1))
}

func TestRandomOrderIsSeededPermutation(t *testing.T) {
	first := Random.Order(20, 42)
	second := Random.Order(20, 42)
	require.Equal(t, first, second)

	sorted := append([]int(nil), first...)
	sort.Ints(sorted)
	require.Equal(t, Sequential.Order(20, 0), sorted)
}
