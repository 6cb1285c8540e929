package logging

import (
	"sync"
)

// Logger is a type that is responsible for storing and logging output from the
// assembler and linker as necessary
type Logger struct {
	errorCount int // Total encountered errors
	LogLevel   int

	// warnings is a list of all warnings to be logged at the end of the build
	warnings []LogMessage

	// buildRoot is used to shorten display paths in errors
	buildRoot string

	// m is the mutex used to synchonize the printing of error messages
	m *sync.Mutex
}

// Enumeration of the different log levels
const (
	LogLevelSilent  = iota // no output at all
	LogLevelError          // only errors and closing notification (success/fail)
	LogLevelWarning        // errors, warnings, and closing message
	LogLevelVerbose        // errors, warnings, tool version and phase summary, closing message (DEFAULT)
)

// LogContext identifies the source file a compile message refers to
type LogContext struct {
	FilePath string

	// Source is the text of the file if it is already in memory
	Source []byte
}

// TextPosition is a span of source text.  Lines and columns start at 1 and
// the end column is exclusive.
type TextPosition struct {
	StartLn, StartCol int
	EndLn, EndCol     int
}

// LogMessage is any message that the logger can process
type LogMessage interface {
	display()
	isError() bool
}

// CompileMessage is an error or warning produced for a specific source file
type CompileMessage struct {
	Message  string
	Kind     int
	Position *TextPosition
	Context  *LogContext
	IsError  bool
}

func (cm *CompileMessage) isError() bool {
	return cm.IsError
}

// ConfigError is an error in the manifest, the command line, or the files
// handed to the tool
type ConfigError struct {
	Kind    string
	Message string
}

func (ce *ConfigError) isError() bool {
	return true
}

// BuildWarning is a warning that does not refer to a source position
type BuildWarning struct {
	Kind    string
	Message string
}

func (bw *BuildWarning) isError() bool {
	return false
}

// Enumeration of the kinds of compile messages
const (
	LMKToken = iota
	LMKSyntax
	LMKName
	LMKDef
	LMKUsage
	LMKOperand
	LMKRange
	LMKRegister
	LMKIsa
	LMKLibrary
	LMKEncoding
	LMKLink
)

// newLogger creates a new logger struct
func newLogger(buildRoot string, loglevel int) Logger {
	return Logger{
		buildRoot: buildRoot,
		LogLevel:  loglevel,
		m:         &sync.Mutex{},
	}
}

// handleMsg prompts to logger to process a message -- this message could be
// coming in concurrently and so we need to make sure we are not printing multiple
// things at the same time so we there is a mutex in place for this function
func (l *Logger) handleMsg(lm LogMessage) {
	l.m.Lock()
	defer l.m.Unlock()

	if lm.isError() {
		l.errorCount++

		if l.LogLevel > LogLevelSilent {
			displayEndPhase(false)
			lm.display()
		}
	} else {
		l.warnings = append(l.warnings, lm)
	}
}

// flushWarnings displays all deferred warnings and clears them
func (l *Logger) flushWarnings() int {
	l.m.Lock()
	defer l.m.Unlock()

	count := len(l.warnings)
	if l.LogLevel >= LogLevelWarning {
		for _, w := range l.warnings {
			w.display()
		}
	}

	l.warnings = nil
	return count
}
