package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// readArg returns args[0], or stdin when args is empty or "-".
func readArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

// readBytes reads an argument as hex when asHex is set, else as raw text.
func readBytes(cmd *cobra.Command, args []string, asHex bool) ([]byte, error) {
	s, err := readArg(cmd, args)
	if err != nil {
		return nil, err
	}
	if !asHex {
		return []byte(s), nil
	}
	return decodeHex(s)
}

// readFile reads path, or stdin for "-". With asHex the content is hex text.
func readFile(cmd *cobra.Command, path string, asHex bool) ([]byte, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if asHex {
		return decodeHex(string(raw))
	}
	return raw, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return b, nil
}
