// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/FishPiOffical/fishpi-go/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	switch os.Args[1] {
	case "login":
		return runLogin(os.Args[2:])
	case "listen":
		return runListen(os.Args[2:])
	case "send":
		return runSend(os.Args[2:])
	case "history":
		return runHistory(os.Args[2:])
	case "online":
		return runOnline(os.Args[2:])
	case "topic":
		return runTopic(os.Args[2:])
	case "redpacket":
		return runRedpacket(os.Args[2:])
	case "version", "--version":
		fmt.Printf("fishpi %s\n", version.Full())
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", os.Args[1])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: fishpi <subcommand> [flags]

Subcommands:
  login      Obtain an API key from username and password
  listen     Stream live chat room events
  send       Post a message to the chat room
  history    Show a page of chat room history
  online     List who is in the chat room
  topic      Show or change the room topic
  redpacket  Open a red packet
  version    Print version information

Run 'fishpi <subcommand> --help' for subcommand flags.
`)
}
