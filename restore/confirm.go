package restore

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer resolves the destructive-action gate. It must return true only
// for an explicit affirmative; empty or absent input declines.
type Confirmer func(prompt string) (bool, error)

// AlwaysConfirm is the explicit non-interactive override (the CLI's --yes
// flag). It is never the default.
func AlwaysConfirm(string) (bool, error) {
	return true, nil
}

// StdinConfirmer prompts on w and reads one line from r. Only "y" and
// "yes" (case-insensitive) confirm; anything else, including end of
// input, declines.
func StdinConfirmer(r io.Reader, w io.Writer) Confirmer {
	reader := bufio.NewReader(r)
	return func(prompt string) (bool, error) {
		fmt.Fprintf(w, "%s [y/N]: ", prompt)

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			// EOF before any input is a decline, not a failure.
			return false, nil
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
