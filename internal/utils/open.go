package utils

import (
	"fmt"
	"os/exec"
	"runtime"
)

var execCommand = exec.Command

// OpenBrowser opens target with the platform's URL handler.
func OpenBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = execCommand("open", target)
	case "windows":
		cmd = execCommand("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		if _, err := exec.LookPath("xdg-open"); err != nil {
			return fmt.Errorf("no URL handler found (install xdg-utils)")
		}
		cmd = execCommand("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
