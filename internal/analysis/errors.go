package analysis

import (
	"fmt"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

// UnknownStanceError is returned for a stance value outside the score table
type UnknownStanceError struct {
	Stance  types.Stance
	VoterID string
}

func (e *UnknownStanceError) Error() string {
	if e.VoterID != "" {
		return fmt.Sprintf("unknown stance %q for voter %s", e.Stance, e.VoterID)
	}
	return fmt.Sprintf("unknown stance %q", e.Stance)
}

// DanglingReferenceError describes a relationship pointing at a voter that is
// not part of the campaign's voter set.
type DanglingReferenceError struct {
	RelationshipID string
	SourceVoterID  string
	TargetVoterID  string
	MissingVoterID string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("relationship %s (%s -> %s) references unknown voter %s",
		e.RelationshipID, e.SourceVoterID, e.TargetVoterID, e.MissingVoterID)
}

// VoterNotFoundError is returned when influence is requested for a voter absent from the graph
type VoterNotFoundError struct {
	VoterID string
}

func (e *VoterNotFoundError) Error() string {
	return fmt.Sprintf("voter %s not found in influence graph", e.VoterID)
}

// AggregationError marks a report that could not be assembled
type AggregationError struct {
	Component string
	Err       error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("report aggregation failed in %s: %v", e.Component, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

func aggregationFailure(component string, err error) error {
	return &AggregationError{Component: component, Err: err}
}
