package observability

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var startTime = time.Now()

const (
	colorReset    = "\033[0m"
	colorPurple   = "\033[35m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

var pulseFrames = []string{"·", "•", "●", "•"}

// termMu synchronizes ALL terminal output so that the cursor
// save/restore in PrintLiveStatus can never be interrupted by a log write.
var termMu sync.Mutex

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// IsTerminal reports whether stdout is attached to a terminal. The banner and
// live status line are skipped otherwise.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// termWriter is a mutex-guarded io.Writer for log output, so log lines never
// land in the middle of a status line redraw.
type termWriter struct{}

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return os.Stderr.Write(p)
}

// NewTermWriter returns an io.Writer suitable for log.SetOutput().
func NewTermWriter() *termWriter {
	return &termWriter{}
}

func PrintBanner() {
	fmt.Print("\033[2J\033[H")

	banner := `
          __    _
 _      _/ /_  (_)________  ___  _____
| | /| / / __ \/ / ___/ __ \/ _ \/ ___/
| |/ |/ / / / / (__  ) /_/ /  __/ /
|__/|__/_/ /_/_/____/ .___/\___/_/
                   /_/
      >> SECRETS FOR ONE, NOTICE FOR ALL <<
`

	width := termWidth()
	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Printf("%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
	}
}

func InitializeTerminal() {
	// Header/Logo area: 1-9
	// Status: 10
	// Gap: 11
	// Scrolling Logs: 12+
	fmt.Print("\033[12;r")
	fmt.Print("\033[12;1H")
}

func CleanupTerminal() {
	fmt.Print("\033[r\033[2J\033[H")
}

var pulseIdx = 0

// PrintLiveStatus redraws the status line on row 10.
func PrintLiveStatus(status *Status) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	snap := status.Snapshot()
	uptime := time.Since(startTime).Round(time.Second)
	memMB := float64(m.Alloc) / 1024 / 1024

	pulseText, pulseColor := "OFFLINE", colorNeonMag
	delta := time.Since(snap.LastHeartbeat)
	if delta < 40*time.Second {
		pulseText, pulseColor = "HEALTHY", colorNeonCyan
	} else if delta < 90*time.Second {
		pulseText, pulseColor = "LAGGING", colorPurple
	}

	pulse := " "
	if snap.InFlight > 0 {
		pulse = pulseFrames[pulseIdx]
		pulseIdx = (pulseIdx + 1) % len(pulseFrames)
	}

	// Memory bar scales with the terminal.
	barWidth := clamp(termWidth()-70, 5, 20)
	memPercent := memMB / (float64(m.Sys) / 1024 / 1024)
	filled := clamp(int(memPercent*float64(barWidth)), 0, barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("▒", barWidth-filled)

	statusStr := fmt.Sprintf(
		"\033[s\033[10;1H\033[K%s[%s] %s%-8s%s | %s%s%s in-flight %d | sent %d | revealed %d | %v [%s %.1fMB]\033[u",
		colorReset,
		snap.LastHeartbeat.Format("15:04:05"),
		pulseColor, pulseText, colorReset,
		colorPurple, pulse, colorReset,
		snap.InFlight, snap.Delivered, snap.Revealed,
		uptime,
		bar, memMB,
	)

	termMu.Lock()
	fmt.Print(statusStr)
	termMu.Unlock()
}
