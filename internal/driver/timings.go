package driver

import (
	"fmt"
	"time"
)

// Timings records how long each coarse stage of one file pipeline took.
type Timings struct {
	Parse time.Duration
	Check time.Duration
	Emit  time.Duration
}

// Total is the summed pipeline time for the file.
func (t Timings) Total() time.Duration {
	return t.Parse + t.Check + t.Emit
}

func (t Timings) String() string {
	return fmt.Sprintf("parse=%s check=%s emit=%s", t.Parse, t.Check, t.Emit)
}
