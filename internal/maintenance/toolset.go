package maintenance

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Invocation is a command line with its default timeout. A nil Args means
// the operation is not available on the platform.
type Invocation struct {
	Args    []string
	Input   string
	Timeout time.Duration
}

func (i Invocation) supported() bool { return len(i.Args) > 0 }

// PackageManager describes how one package manager lists and applies
// upgrades.
type PackageManager struct {
	Name    string
	Binary  string
	List    Invocation
	Upgrade Invocation
	// CountTool names the classification entry whose count phrases count
	// installed upgrades.
	CountTool string
	// Pending counts the upgradable packages in the List output.
	Pending func(stdout string) int
	// CacheDir, when set, is a directory template emptied after upgrading.
	CacheDir string
	// CacheClean is used instead of CacheDir on platforms with a cleaning command.
	CacheClean Invocation
}

// NetworkFix is one network stack reset command.
type NetworkFix struct {
	Key   string
	Label string
	Invocation
}

// Toolset lists the platform commands every pipeline is built from.
type Toolset struct {
	GOOS string

	Drivers       Invocation
	DriverHeaders int
	SFC           Invocation
	DISM          Invocation
	Chkdsk        Invocation

	Packages []PackageManager

	DiskCleanup Invocation
	RecycleBin  Invocation
	Network     []NetworkFix

	PowerPlanCreate   Invocation
	PowerPlanActivate Invocation
	MemoryTrim        Invocation
	VisualEffects     Invocation
}

// highPerformanceScheme is the GUID of the built-in Ultimate Performance plan.
const highPerformanceScheme = "e9a42b02-d5df-448d-aa00-03f14749eb61"

// ToolsetFor returns the commands available on goos. Unknown platforms get
// an empty toolset, so every command step logs that it is unsupported.
func ToolsetFor(goos string) Toolset {
	switch goos {
	case "windows":
		return Toolset{
			GOOS:          goos,
			Drivers:       Invocation{Args: []string{"driverquery", "/v"}, Timeout: 30 * time.Second},
			DriverHeaders: 2,
			SFC:           Invocation{Args: []string{"sfc", "/scannow"}, Timeout: 30 * time.Minute},
			DISM:          Invocation{Args: []string{"dism", "/online", "/cleanup-image", "/restorehealth"}, Timeout: 20 * time.Minute},
			Chkdsk:        Invocation{Args: []string{"chkdsk", "C:", "/f", "/r"}, Input: "n\n", Timeout: 5 * time.Minute},
			Packages: []PackageManager{{
				Name:   "winget",
				Binary: "winget",
				List:   Invocation{Args: []string{"winget", "upgrade"}, Timeout: time.Minute},
				Upgrade: Invocation{Args: []string{
					"winget", "upgrade", "--all",
					"--accept-package-agreements", "--accept-source-agreements", "--disable-interactivity",
				}, Timeout: 15 * time.Minute},
				CountTool: "winget-upgrade",
				Pending:   wingetPending,
				CacheDir:  `%LOCALAPPDATA%\Packages\Microsoft.DesktopAppInstaller_8wekyb3d8bbwe\LocalCache`,
			}},
			DiskCleanup: Invocation{Args: []string{"cleanmgr", "/sagerun:1"}, Timeout: 5 * time.Minute},
			RecycleBin:  Invocation{Args: []string{"powershell", "-NoProfile", "-Command", "Clear-RecycleBin -Force -Confirm:$false"}, Timeout: time.Minute},
			Network: []NetworkFix{
				{Key: "winsock-reset", Label: "Reset Winsock", Invocation: Invocation{Args: []string{"netsh", "winsock", "reset"}, Timeout: time.Minute}},
				{Key: "dns-flush", Label: "Flush DNS", Invocation: Invocation{Args: []string{"ipconfig", "/flushdns"}, Timeout: time.Minute}},
				{Key: "tcpip-reset", Label: "Reset TCP/IP", Invocation: Invocation{Args: []string{"netsh", "int", "ip", "reset"}, Timeout: time.Minute}},
			},
			PowerPlanCreate:   Invocation{Args: []string{"powercfg", "-duplicatescheme", highPerformanceScheme}, Timeout: 30 * time.Second},
			PowerPlanActivate: Invocation{Args: []string{"powercfg", "-setactive", highPerformanceScheme}, Timeout: 30 * time.Second},
			MemoryTrim:        Invocation{Args: []string{"powershell", "-NoProfile", "-Command", "[System.GC]::Collect()"}, Timeout: 30 * time.Second},
			VisualEffects: Invocation{Args: []string{
				"reg", "add", `HKCU\Software\Microsoft\Windows\CurrentVersion\Explorer\VisualEffects`,
				"/v", "VisualFXSetting", "/t", "REG_DWORD", "/d", "2", "/f",
			}, Timeout: 30 * time.Second},
		}
	case "linux":
		return Toolset{
			GOOS:          goos,
			Drivers:       Invocation{Args: []string{"lsmod"}, Timeout: 30 * time.Second},
			DriverHeaders: 1,
			Packages: []PackageManager{{
				Name:       "apt",
				Binary:     "apt-get",
				List:       Invocation{Args: []string{"apt", "list", "--upgradable"}, Timeout: time.Minute},
				Upgrade:    Invocation{Args: []string{"apt-get", "upgrade", "-y"}, Timeout: 15 * time.Minute},
				CountTool:  "apt-upgrade",
				Pending:    aptPending,
				CacheClean: Invocation{Args: []string{"apt-get", "clean"}, Timeout: time.Minute},
			}},
			RecycleBin: Invocation{Args: []string{"gio", "trash", "--empty"}, Timeout: time.Minute},
			Network: []NetworkFix{
				{Key: "dns-flush", Label: "Flush DNS", Invocation: Invocation{Args: []string{"resolvectl", "flush-caches"}, Timeout: time.Minute}},
			},
			PowerPlanActivate: Invocation{Args: []string{"powerprofilesctl", "set", "performance"}, Timeout: 30 * time.Second},
		}
	case "darwin":
		return Toolset{
			GOOS: goos,
			Packages: []PackageManager{{
				Name:       "brew",
				Binary:     "brew",
				List:       Invocation{Args: []string{"brew", "outdated"}, Timeout: time.Minute},
				Upgrade:    Invocation{Args: []string{"brew", "upgrade"}, Timeout: 15 * time.Minute},
				CountTool:  "brew-upgrade",
				Pending:    linePending,
				CacheClean: Invocation{Args: []string{"brew", "cleanup"}, Timeout: 5 * time.Minute},
			}},
			Network: []NetworkFix{
				{Key: "dns-flush", Label: "Flush DNS", Invocation: Invocation{Args: []string{"dscacheutil", "-flushcache"}, Timeout: time.Minute}},
			},
		}
	default:
		return Toolset{GOOS: goos}
	}
}

var wingetSummary = regexp.MustCompile(`(?i)(\d+)\s+(?:upgrades?|atualiza\S*)\s+(?:available|dispon)`)

// wingetPending prefers the trailing "N upgrades available." line and falls
// back to counting table rows below the dashed separator.
func wingetPending(stdout string) int {
	if m := wingetSummary.FindStringSubmatch(stdout); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	rows, inTable := 0, false
	for _, line := range splitLines(stdout) {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "---"):
			inTable = true
		case inTable && trimmed != "":
			rows++
		}
	}
	return rows
}

func aptPending(stdout string) int {
	n := 0
	for _, line := range splitLines(stdout) {
		if strings.Contains(line, "[upgradable from") {
			n++
		}
	}
	return n
}

func linePending(stdout string) int {
	n := 0
	for _, line := range splitLines(stdout) {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
