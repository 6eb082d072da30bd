// Package browser opens URLs in the user's default browser.
package browser

import "os/exec"

// Open launches the default browser on url. Best effort: on a system
// with no known opener it silently does nothing, since a missing
// browser must never stop the server.
func Open(url string) {
	var cmd *exec.Cmd

	switch {
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	case commandExists("cmd"):
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}

	_ = cmd.Start()
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
