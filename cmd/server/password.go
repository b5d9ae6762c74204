package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// adminPasswordEnv supplies the create-admin password without putting it on the command line.
const adminPasswordEnv = "ADMIN_PASSWORD"

// Replaced in tests so the terminal path runs without a tty.
var (
	readPassword    = term.ReadPassword
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// adminPassword resolves the create-admin password from the flag, then ADMIN_PASSWORD, then stdin:
// an echo-free prompt on a terminal, otherwise the first line of piped input.
func adminPassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(adminPasswordEnv); v != "" {
		return v, nil
	}

	var password string
	if cmd.InOrStdin() == os.Stdin && stdinIsTerminal() {
		fmt.Fprint(cmd.ErrOrStderr(), "Admin password: ")
		pw, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = string(pw)
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return "", fmt.Errorf("admin password is required: pass --password, set %s or enter it on stdin", adminPasswordEnv)
	}
	return password, nil
}
