package build

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/bobg/multichan"
	"github.com/davecgh/go-spew/spew"
	"github.com/kr/pretty"

	"github.com/AreaLayer/aluasm/logging"
)

// EventKind enumerates what can happen to a unit during a build
type EventKind int

const (
	EventPhase    EventKind = iota // a build phase begins; Message is its name
	EventParsed                    // Value is the *ast.Program of the unit
	EventAnalyzed                  // Value is the *sem.Program
	EventEncoded                   // Value is the *object.Module
	EventLinked                    // Value is the *libs.Library
	EventError                     // a diagnostic that fails the build
	EventWarning                   // a diagnostic that does not
	EventSync                      // Done is closed once everything before it is logged
)

// Event is a single item of the build's event stream.  Events are written by
// the goroutines processing units and read by the logger and the dump.
type Event struct {
	Kind EventKind

	// Name is the name of the unit or library the event is about
	Name string

	// Context locates diagnostics
	Context *logging.LogContext

	Message  string
	LogKind  int
	Position *logging.TextPosition

	Value interface{}

	Done chan struct{}
}

// eventStream fans the events of a build out to every consumer
type eventStream struct {
	w  *multichan.W
	wg sync.WaitGroup
}

func newEventStream() *eventStream {
	return &eventStream{w: multichan.New(Event{})}
}

// consume starts a consumer.  It must be called before the first write or the
// consumer will miss events.
func (es *eventStream) consume(fn func(Event)) {
	r := es.w.Reader()

	es.wg.Add(1)
	go func() {
		defer es.wg.Done()
		defer r.Dispose()

		for {
			v, ok := r.Read(context.Background())
			if !ok {
				return
			}

			fn(v.(Event))
		}
	}()
}

func (es *eventStream) write(e Event) {
	es.w.Write(e)
}

// sync blocks until the logger has processed every event written so far
func (es *eventStream) sync() {
	done := make(chan struct{})
	es.w.Write(Event{Kind: EventSync, Done: done})
	<-done
}

// close ends the stream and waits for the consumers to finish
func (es *eventStream) close() {
	es.w.Close()
	es.wg.Wait()
}

// logEvent reports diagnostics through the global logger
func logEvent(e Event) {
	switch e.Kind {
	case EventPhase:
		logging.LogBeginPhase(e.Message)
	case EventError:
		logging.LogCompileError(e.Context, e.Message, e.LogKind, e.Position)
	case EventWarning:
		logging.LogCompileWarning(e.Context, e.Message, e.LogKind, e.Position)
	case EventSync:
		close(e.Done)
	}
}

// dumper writes a debug log of the build
type dumper struct {
	w io.Writer
}

func (d *dumper) dumpEvent(e Event) {
	switch e.Kind {
	case EventPhase:
		fmt.Fprintf(d.w, "==== %s ====\n", e.Message)
	case EventParsed:
		fmt.Fprintf(d.w, "-- syntax tree of %s\n", e.Name)
		pretty.Fprintf(d.w, "%# v\n", e.Value)
	case EventAnalyzed:
		fmt.Fprintf(d.w, "-- analyzed program of %s\n", e.Name)
		pretty.Fprintf(d.w, "%# v\n", e.Value)
	case EventEncoded:
		fmt.Fprintf(d.w, "-- object module of %s\n", e.Name)
		spew.Fdump(d.w, e.Value)
	case EventLinked:
		fmt.Fprintf(d.w, "-- library %s\n", e.Name)
		spew.Fdump(d.w, e.Value)
	case EventError, EventWarning:
		severity := "error"
		if e.Kind == EventWarning {
			severity = "warning"
		}

		if e.Position != nil {
			fmt.Fprintf(d.w, "%s:%d:%d: %s: %s\n", e.Name, e.Position.StartLn, e.Position.StartCol, severity, e.Message)
		} else {
			fmt.Fprintf(d.w, "%s: %s: %s\n", e.Name, severity, e.Message)
		}
	}
}
