package platform

import (
	"os/exec"
	"runtime"
)

// startCommand starts a command without waiting for it. Tests replace it.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// BrowserCommand returns the command that opens target in the desktop
// browser on goos.
func BrowserCommand(goos, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{target}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return "xdg-open", []string{target}
	}
}

// OpenBrowser opens target (a URL or file path) in the default browser.
func OpenBrowser(target string) error {
	name, args := BrowserCommand(runtime.GOOS, target)
	return startCommand(name, args...)
}
