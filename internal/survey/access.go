package survey

import (
	"fmt"
	"math/rand"
	"strings"
)

// AccessMethod selects the order in which questions are presented. It is
// chosen once from configuration when a session begins.
type AccessMethod int

const (
	Sequential AccessMethod = iota
	Random
)

// ParseAccessMethod maps a configuration value onto an access method. An
// empty value selects Sequential.
func ParseAccessMethod(value string) (AccessMethod, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "sequential", "sequence", "ordered", "in order":
		return Sequential, nil
	case "random", "randomized", "randomised", "shuffle", "shuffled":
		return Random, nil
	default:
		return Sequential, fmt.Errorf("survey: unknown access method %q", value)
	}
}

// String returns the configuration spelling of the method.
func (m AccessMethod) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("access-method(%d)", int(m))
	}
}

// Order returns the presentation permutation for n questions. Random orders
// are derived from seed so the same seed reproduces the same order.
func (m AccessMethod) Order(n int, seed int64) []int {
	if n <= 0 {
		return nil
	}
	if m == Random {
		return rand.New(rand.NewSource(seed)).Perm(n)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
