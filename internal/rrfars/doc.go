// Package rrfars implements the adjective rating-scale survey component.
//
// A host loads the component through component.Registry, hands it a
// definition and a delegate, and drives it through Setup, IsClearedToBegin,
// Begin (or Recover), and TearDown. The component presents one question at a
// time, records the subject's rating and reaction time to a raw data file,
// and tells the delegate when every question has been answered.
package rrfars
