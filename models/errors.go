package models

import "errors"

var (
	// ErrUnknownTool is returned when a model requests a tool the registry does not hold.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrMaxIterations is returned when a tool loop exhausts its model-call budget.
	ErrMaxIterations = errors.New("tool loop exceeded max iterations")
	// ErrInvalidDecision is returned by the strict decision policy when no action can be derived.
	ErrInvalidDecision = errors.New("decision is not one of buy, sell or hold")
	// ErrOutputAlreadySet guards single assignment of a loop output.
	ErrOutputAlreadySet = errors.New("output already set")
	// ErrToolBackend wraps failures reported by the research tool backend.
	ErrToolBackend = errors.New("tool backend error")
)
