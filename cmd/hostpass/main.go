package main

import (
	"bufio"
	"fmt"
	"os"
	"roast-battle/auth"
	"strings"
)

// Reads a passphrase from the first argument or stdin and prints the value for HOST_PASSPHRASE_HASH.
func main() {
	passphrase, err := readPassphrase()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hostpass: %v\n", err)
		os.Exit(2)
	}
	if err := auth.ValidateLogin(auth.LoginRequest{Passphrase: passphrase}); err != nil {
		fmt.Fprintf(os.Stderr, "hostpass: %v\n", err)
		os.Exit(2)
	}
	hash, err := auth.HashPassphrase(passphrase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hostpass: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readPassphrase() (string, error) {
	if len(os.Args) > 1 {
		return os.Args[1], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("no passphrase given: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
