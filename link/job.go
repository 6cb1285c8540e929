package link

import (
	"fmt"

	"github.com/AreaLayer/aluasm/isa"
	"github.com/AreaLayer/aluasm/libs"
	"github.com/AreaLayer/aluasm/object"
)

// State is the progress of a link job
type State int

// Enumeration of link job states.  A job only ever moves forward through
// them, or into Failed.
const (
	Unlinked State = iota
	PartiallyResolved
	Resolved
	Addressed
	Failed
)

func (s State) String() string {
	switch s {
	case Unlinked:
		return "unlinked"
	case PartiallyResolved:
		return "partially resolved"
	case Resolved:
		return "resolved"
	case Addressed:
		return "addressed"
	}

	return "failed"
}

// Job links one or more object modules into a library
type Job struct {
	Name string

	linker  *Linker
	modules []*object.Module

	state State
	err   *LinkError
	lib   *libs.Library

	// merged image
	code, data []byte
	codeBase   []int
	dataBase   []int
	exts       isa.Set
	exports    map[string]libs.Export
	entry      int

	// callTable holds the library IDs in slot order
	callTable []libs.ID
	slots     map[libs.ID]int
}

// State returns the current state of the job
func (j *Job) State() State {
	return j.state
}

// Err returns the reason the job failed, if it did
func (j *Job) Err() error {
	if j.err == nil {
		return nil
	}

	return j.err
}

// Library returns the produced library once the job is addressed
func (j *Job) Library() (*libs.Library, bool) {
	return j.lib, j.state == Addressed
}

// advance moves the job to a later state
func (j *Job) advance(to State) {
	if to <= j.state || j.state == Failed {
		panic(fmt.Sprintf("link job %s cannot move from %s to %s", j.Name, j.state, to))
	}

	j.state = to
}

// fail stops the job for good
func (j *Job) fail(err *LinkError) (*libs.Library, error) {
	j.state = Failed
	j.err = err
	j.lib = nil
	return nil, err
}
