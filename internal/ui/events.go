// Package ui renders per-file build progress on a terminal.
package ui

// Stage is the coarse pipeline position a file is at. The compiler runs
// more passes than these; the UI only distinguishes what a user can see.
type Stage uint8

const (
	StageQueue Stage = iota
	StageParse
	StageCheck
	StageEmit
)

// Status qualifies a stage event.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event is one progress update. File is empty for build-wide updates.
type Event struct {
	File   string
	Stage  Stage
	Status Status
}
