// Command hash-password prints the bcrypt hash of a password for use in the
// auth.users[].password_hash setting.
//
//	go run ./cmd/hash-password -cost 12 'correct horse battery staple'
//
// With no argument the password is read from stdin, so it stays out of the
// shell history.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sakif/cityinfo/internal/auth"
)

func main() {
	cost := pflag.Int("cost", auth.DefaultCost, "bcrypt cost factor")
	pflag.Parse()

	password, err := readPassword(pflag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash-password:", err)
		os.Exit(1)
	}

	hash, err := auth.NewPasswordServiceWithCost(*cost).Hash(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash-password:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readPassword(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
