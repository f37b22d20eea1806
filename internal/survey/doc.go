// Package survey holds the domain model of an adjective rating-scale survey:
// the question set, the access method that orders it, the five-point
// adjective scale, and the presenter state machine that walks the subject
// through one question at a time.
package survey
