package history

import (
	"bytes"
	"os/exec"
	"strings"
)

// ResolveCommit returns the short HEAD commit of the repository containing
// root, or "" when root is not inside a git work tree.
func ResolveCommit(root string) string {
	return runGit(root, "rev-parse", "--short=12", "HEAD")
}

func runGit(root string, args ...string) string {
	cmd := exec.Command("git", append([]string{"-C", root}, args...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(stdout.String())
}
