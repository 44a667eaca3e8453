package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/ssafy/baperang/backend/internal/scheduler"
)

// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
var out io.Writer = os.Stdout

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(out, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintf(out, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(out, "❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Fprintf(out, "ℹ️  %s\n", message)
}

// PrintJobResult prints one scheduler run with the service dates it covered
func PrintJobResult(result scheduler.JobResult) {
	summary := fmt.Sprintf("%s in %s", result.JobName, result.Duration.Round(1e6))
	if dr, ok := result.Dates(); ok {
		summary += fmt.Sprintf(" [%s, %d일]", dr.String(), dr.Len())
	}
	if result.Items > 0 {
		summary += fmt.Sprintf(" (%d건)", result.Items)
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed: %s", summary, result.Error))
		return
	}
	PrintSuccess(summary)
}
