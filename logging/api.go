package logging

import (
	"os"
)

// logger is a global reference to a shared Logger (created/initialized with the
// build driver, but separated for general usage)
var logger = newLogger("", LogLevelVerbose)

// Initialize initializes the global logger with the provided log level
func Initialize(buildRoot string, loglevelname string) {
	var loglevel int
	switch loglevelname {
	case "silent":
		loglevel = LogLevelSilent
	case "error":
		loglevel = LogLevelError
	case "warning", "warn":
		loglevel = LogLevelWarning
	// everything else (including invalid log levels) should default to verbose
	default:
		loglevel = LogLevelVerbose
	}

	logger = newLogger(buildRoot, loglevel)
}

// ShouldProceed indicates whether or not the log module has encountered an errors.
// This is useful for sections of the build where multiple units are processed
// concurrently and having an error accumulator would be practical
func ShouldProceed() bool {
	logger.m.Lock()
	defer logger.m.Unlock()

	return logger.errorCount == 0
}

// ErrorCount returns the number of errors logged so far
func ErrorCount() int {
	logger.m.Lock()
	defer logger.m.Unlock()

	return logger.errorCount
}

// WarningCount returns the number of warnings waiting to be displayed
func WarningCount() int {
	logger.m.Lock()
	defer logger.m.Unlock()

	return len(logger.warnings)
}

// -----------------------------------------------------------------------------
// NOTE: All log functions will only display if the appropriate log level is
// set.  Most log functions will simply fail silently if below their appropriate
// log level.

// LogCompileError logs and a compilation error (user-induced, bad code)
func LogCompileError(lctx *LogContext, message string, kind int, pos *TextPosition) {
	logger.handleMsg(&CompileMessage{
		Message:  message,
		Kind:     kind,
		Position: pos,
		Context:  lctx,
		IsError:  true,
	})
}

// LogCompileWarning logs a compilation warning (user-induced, problematic code)
func LogCompileWarning(lctx *LogContext, message string, kind int, pos *TextPosition) {
	logger.handleMsg(&CompileMessage{
		Message:  message,
		Kind:     kind,
		Position: pos,
		Context:  lctx,
		IsError:  false,
	})
}

// LogConfigError logs an error related to the manifest or tool configuration
func LogConfigError(kind, message string) {
	logger.handleMsg(&ConfigError{Kind: kind, Message: message})
}

// LogBuildWarning logs a warning in the build process
func LogBuildWarning(kind, warning string) {
	logger.handleMsg(&BuildWarning{Kind: kind, Message: warning})
}

// LogFatal logs a fatal error that was not expected: ie. the tool did
// something it wasn't supposed to.  It exits the process.
func LogFatal(message string) {
	logger.m.Lock()
	displayEndPhase(false)
	displayFatalError(message)
	logger.m.Unlock()

	os.Exit(1)
}

// LogInfo prints an informational line when running verbosely
func LogInfo(tag, msg string) {
	if logger.LogLevel == LogLevelVerbose {
		PrintInfoMessage(tag, msg)
	}
}

// -----------------------------------------------------------------------------

// LogHeader displays the tool banner before a build starts
func LogHeader(command, target string) {
	if logger.LogLevel == LogLevelVerbose {
		displayHeader(command, target)
	}
}

// LogBeginPhase starts a build phase spinner
func LogBeginPhase(phase string) {
	if logger.LogLevel == LogLevelVerbose {
		logger.m.Lock()
		displayBeginPhase(phase)
		logger.m.Unlock()
	}
}

// LogEndPhase ends the current build phase spinner
func LogEndPhase() {
	if logger.LogLevel == LogLevelVerbose {
		logger.m.Lock()
		displayEndPhase(logger.errorCount == 0)
		logger.m.Unlock()
	}
}

// LogFinished displays any deferred warnings and the closing summary.  It
// returns whether the build succeeded.
func LogFinished() bool {
	warningCount := logger.flushWarnings()
	success := ShouldProceed()

	if logger.LogLevel > LogLevelSilent {
		displayFinished(success, ErrorCount(), warningCount)
	}

	return success
}
