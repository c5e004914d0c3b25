// Package prompt provides the secure password prompt used when no
// --password flag is given.
package prompt

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Terminal reads secrets from the controlling terminal without echoing
// them. The prompt text goes to stderr so it never mixes with exported
// output on stdout.
type Terminal struct{}

// ReadSecret displays the prompt and reads one secret.
func (Terminal) ReadSecret(promptText string) (string, error) {
	fmt.Fprint(os.Stderr, promptText)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}
