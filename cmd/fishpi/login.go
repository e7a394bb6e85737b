// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"
)

func runLogin(args []string) error {
	flags := &clientFlags{}
	flagSet := pflag.NewFlagSet("fishpi login", pflag.ContinueOnError)
	flags.addTo(flagSet)
	var username string
	flagSet.StringVar(&username, "username", "", "user name or email (prompted when omitted)")
	if stop, err := parseFlags(flagSet, args); stop || err != nil {
		return err
	}

	resolved, err := flags.resolve()
	if err != nil {
		return err
	}
	logger := newLogger(resolved.level)
	client, err := resolved.client(logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	reader := bufio.NewReader(os.Stdin)
	if username == "" {
		fmt.Fprint(os.Stderr, "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return fmt.Errorf("a username is required")
	}

	// Read the password from the terminal with echo disabled.
	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return fmt.Errorf("no terminal available for the password prompt")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	fmt.Fprint(os.Stderr, "MFA code (empty if none): ")
	mfaLine, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading MFA code: %w", err)
	}

	session, err := client.Login(ctx, username, string(passwordBytes), strings.TrimSpace(mfaLine))
	if err != nil {
		return err
	}

	if resolved.jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{"apiKey": session.Key()})
	}
	fmt.Println(session.Key())
	return nil
}
