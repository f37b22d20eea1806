package survey

import (
	"errors"
	"fmt"
)

// ScalePoints is the fixed cardinality of the adjective rating scale.
const ScalePoints = 5

var (
	// ErrAdjectiveIndex is returned for an adjective position outside the scale.
	ErrAdjectiveIndex = errors.New("survey: adjective index out of range")
	// ErrSelectionRange is returned for a selection outside the scale.
	ErrSelectionRange = errors.New("survey: selection out of range")
)

// Scale binds the five adjective labels to rating values.
type Scale struct {
	Adjectives [ScalePoints]string
	// ZeroBased makes ratings run 0..4 instead of 1..5.
	ZeroBased bool
}

// NewScale builds a scale from exactly ScalePoints labels.
func NewScale(labels []string, zeroBased bool) (Scale, error) {
	if len(labels) != ScalePoints {
		return Scale{}, fmt.Errorf("survey: scale needs %d adjectives, got %d", ScalePoints, len(labels))
	}
	s := Scale{ZeroBased: zeroBased}
	for i, label := range labels {
		if label == "" {
			return Scale{}, fmt.Errorf("survey: adjective %d is empty", i+1)
		}
		s.Adjectives[i] = label
	}
	return s, nil
}

// Adjective returns the label at position idx (0..ScalePoints-1).
func (s Scale) Adjective(idx int) (string, error) {
	if idx < 0 || idx >= ScalePoints {
		return "", fmt.Errorf("%w: %d", ErrAdjectiveIndex, idx)
	}
	return s.Adjectives[idx], nil
}

// Value converts a selection index on the control into the recorded rating.
func (s Scale) Value(idx int) (int, error) {
	if idx < 0 || idx >= ScalePoints {
		return 0, fmt.Errorf("%w: %d", ErrSelectionRange, idx)
	}
	if s.ZeroBased {
		return idx, nil
	}
	return idx + 1, nil
}

// Range returns the lowest and highest recordable rating.
func (s Scale) Range() (int, int) {
	if s.ZeroBased {
		return 0, ScalePoints - 1
	}
	return 1, ScalePoints
}

// Contains reports whether value is a recordable rating.
func (s Scale) Contains(value int) bool {
	lo, hi := s.Range()
	return value >= lo && value <= hi
}
