package logging

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AreaLayer/aluasm/common"
	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

// PrintErrorMessage prints a standard Go error to the console
func PrintErrorMessage(tag string, err error) {
	ErrorStyleBG.Print(tag)
	ErrorColorFG.Println(" " + err.Error())
}

// PrintWarningMessage prints a warning message to the console
func PrintWarningMessage(tag, msg string) {
	WarnStyleBG.Print(tag)
	WarnColorFG.Println(" " + msg)
}

// PrintInfoMessage prints an informational message to the user
func PrintInfoMessage(tag, msg string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + msg)
}

// -----------------------------------------------------------------------------

func (ce *ConfigError) display() {
	PrintErrorMessage(ce.Kind+" Error", errors.New(ce.Message))
}

func (bw *BuildWarning) display() {
	PrintWarningMessage(bw.Kind+" Warning", bw.Message)
}

var compileMsgStrings = map[int]string{
	LMKToken:    "Token",
	LMKSyntax:   "Syntax",
	LMKName:     "Name",
	LMKDef:      "Definition",
	LMKUsage:    "Usage",
	LMKOperand:  "Operand",
	LMKRange:    "Range",
	LMKRegister: "Register",
	LMKIsa:      "ISA",
	LMKLibrary:  "Library",
	LMKEncoding: "Encoding",
	LMKLink:     "Link",
}

func (cm *CompileMessage) display() {
	cm.displayBanner()

	if cm.Position != nil {
		fmt.Printf("%s:%d:%d: ", cm.reprPath(), cm.Position.StartLn, cm.Position.StartCol)
	}
	fmt.Println(cm.Message)

	if cm.Position != nil {
		cm.displayCodeSelection()
	}
}

func (cm *CompileMessage) reprPath() string {
	if cm.Context == nil {
		return "<unknown>"
	}

	return common.ReprPath(logger.buildRoot, cm.Context.FilePath)
}

// displayBanner displays the banner on top of all compilation messages
func (cm *CompileMessage) displayBanner() {
	fmt.Print("\n-- ")
	kindStr := compileMsgStrings[cm.Kind]
	kindLen := len(kindStr)
	if cm.isError() {
		ErrorStyleBG.Print(kindStr + " Error")
		kindLen += 6
	} else {
		WarnStyleBG.Print(kindStr + " Warning")
		kindLen += 8
	}

	fmt.Print(" ")

	fileName := "<unknown>"
	if cm.Context != nil {
		fileName = filepath.Base(cm.Context.FilePath)
	}

	bannerLen := pterm.GetTerminalWidth() / 2
	if bannerLen > 50 {
		bannerLen = 50
	}

	dashCount := bannerLen - len(fileName) - kindLen - 1
	if dashCount < 2 {
		dashCount = 2
	}

	fmt.Print(strings.Repeat("-", dashCount) + " ")
	InfoColorFG.Println(fileName)
}

// sourceLines returns the lines of the message's source file
func (cm *CompileMessage) sourceLines() ([]string, bool) {
	if cm.Context == nil {
		return nil, false
	}

	src := cm.Context.Source
	if src == nil {
		var err error
		if src, err = os.ReadFile(cm.Context.FilePath); err != nil {
			return nil, false
		}
	}

	return strings.Split(string(bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))), "\n"), true
}

// displayCodeSelection displays the erroneous code (with line numbers) and
// highlights the appropriate sections
func (cm *CompileMessage) displayCodeSelection() {
	allLines, ok := cm.sourceLines()
	if !ok || cm.Position.StartLn < 1 || cm.Position.EndLn > len(allLines) {
		return
	}

	// tabs are shown as single spaces so that columns line up with the
	// reported positions
	lines := make([]string, cm.Position.EndLn-cm.Position.StartLn+1)
	for i := range lines {
		lines[i] = strings.ReplaceAll(allLines[cm.Position.StartLn-1+i], "\t", " ")
	}

	maxLineNumberWidth := len(strconv.Itoa(cm.Position.EndLn)) + 1
	lineNumberFmtStr := "%-" + strconv.Itoa(maxLineNumberWidth) + "v"

	fmt.Println()
	for i, line := range lines {
		InfoColorFG.Print(fmt.Sprintf(lineNumberFmtStr, i+cm.Position.StartLn))
		fmt.Print("|  ")
		fmt.Println(line)

		start, end := 0, len(line)
		if i == 0 {
			start = cm.Position.StartCol - 1
		}
		if i == len(lines)-1 {
			end = cm.Position.EndCol - 1
		}

		if start < 0 {
			start = 0
		}
		if end <= start {
			end = start + 1
		}

		fmt.Print(strings.Repeat(" ", maxLineNumberWidth), "|  ")
		fmt.Print(strings.Repeat(" ", start))
		ErrorColorFG.Println(strings.Repeat("^", end-start))
	}

	fmt.Println()
}

const fatalErrorPostlude = `
This is likely a bug in aluasm.
Please open an issue on Github: github.com/AreaLayer/aluasm`

func displayFatalError(msg string) {
	fmt.Print("\n\n")
	ErrorStyleBG.Print("Fatal Error ")
	ErrorColorFG.Println(msg)
	InfoColorFG.Println(fatalErrorPostlude)
}

// -----------------------------------------------------------------------------

// displayHeader displays the tool information before starting a build
func displayHeader(command, target string) {
	fmt.Print("aluasm ")
	InfoColorFG.Print("v" + common.AluasmVersion)
	fmt.Print(" -- " + command + ": ")
	InfoColorFG.Println(target)
}

// phaseSpinner stores the current phase spinner
var phaseSpinner *pterm.SpinnerPrinter
var currentPhase string
var phaseStartTime time.Time

const maxPhaseLength = len("Analyzing")

// displayBeginPhase displays the beginning of a build phase
func displayBeginPhase(phase string) {
	currentPhase = phase
	phaseText := phase + "..." + strings.Repeat(" ", maxPhaseLength-len(phase)+2)
	phaseSpinner = pterm.DefaultSpinner.WithStyle(pterm.NewStyle(InfoColorFG))

	phaseSpinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: SuccessStyleBG,
			Text:  "Done",
		},
	}

	phaseSpinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: ErrorStyleBG,
			Text:  "Fail",
		},
	}

	phaseSpinner.Start(phaseText)
	phaseStartTime = time.Now()
}

// displayEndPhase displays the end of a build phase
func displayEndPhase(success bool) {
	if phaseSpinner != nil {
		padding := strings.Repeat(" ", maxPhaseLength-len(currentPhase)+2)
		if success {
			phaseSpinner.Success(
				currentPhase+padding,
				fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
			)
		} else {
			phaseSpinner.Fail(currentPhase + padding)
		}

		phaseSpinner = nil
	}
}

// displayFinished displays the closing summary of a build
func displayFinished(success bool, errorCount, warningCount int) {
	fmt.Print("\n")

	if success {
		SuccessColorFG.Print("All done! ")
	} else {
		ErrorColorFG.Print("Oh no! ")
	}

	fmt.Print("(")

	switch errorCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Print(" errors, ")
	case 1:
		ErrorColorFG.Print(1)
		fmt.Print(" error, ")
	default:
		ErrorColorFG.Print(errorCount)
		fmt.Print(" errors, ")
	}

	switch warningCount {
	case 0:
		SuccessColorFG.Print(0)
		fmt.Println(" warnings)")
	case 1:
		WarnColorFG.Print(1)
		fmt.Println(" warning)")
	default:
		WarnColorFG.Print(warningCount)
		fmt.Println(" warnings)")
	}
}
