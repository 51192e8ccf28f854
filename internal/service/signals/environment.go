package signals

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

var processStart = time.Now()

// EnvironmentFacts describes the machine the bot runs on. The facts
// feed self-awareness hints in the prompt, nothing else.
func EnvironmentFacts() []string {
	facts := []string{
		fmt.Sprintf("runtime: %s on %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
		fmt.Sprintf("cpu cores: %d", runtime.NumCPU()),
		fmt.Sprintf("uptime: %s", formatUptime(time.Since(processStart))),
	}
	if host, err := os.Hostname(); err == nil {
		facts = append(facts, fmt.Sprintf("host: %s", host))
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	facts = append(facts, fmt.Sprintf("memory in use: %d MiB", ms.Alloc/1024/1024))
	return facts
}

func formatUptime(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%d days", int(d.Hours()/24))
	}
}
