package rrfars

import "fmt"

// Definition keys read by the component.
const (
	TaskNameKey             = "RRFARSTaskName"
	DataDirectoryKey        = "RRFARSDataDirectory"
	QuestionFileKey         = "RRFARSQuestionFile"
	QuestionAccessMethodKey = "RRFARSQuestionAccessMethod"
	ZeroBasedKey            = "RRFARSZeroBased"
	RandomSeedKey           = "RRFARSRandomSeed"
)

// AdjectiveKey returns the definition key for the adjective at position idx
// (0-based). Keys are numbered from 1 in the definition.
func AdjectiveKey(idx int) string {
	return fmt.Sprintf("RRFARSAdjective%d", idx+1)
}
