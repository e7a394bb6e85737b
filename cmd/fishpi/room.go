// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/FishPiOffical/fishpi-go/chatroom"
	"github.com/FishPiOffical/fishpi-go/redpacket"
)

// roomSession builds the detached chat room facade the one-shot
// commands use for REST queries.
func roomSession(resolved settings, logger *slog.Logger) (*chatroom.Session, error) {
	apiSession, err := resolved.session(logger)
	if err != nil {
		return nil, err
	}
	return chatroom.NewSession(chatroom.SessionConfig{Session: apiSession, Logger: logger})
}

func runSend(args []string) error {
	flags := &clientFlags{}
	flagSet := pflag.NewFlagSet("fishpi send", pflag.ContinueOnError)
	flags.addTo(flagSet)
	if stop, err := parseFlags(flagSet, args); stop || err != nil {
		return err
	}
	message := strings.Join(flagSet.Args(), " ")
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("usage: fishpi send <message...>")
	}

	resolved, err := flags.resolve()
	if err != nil {
		return err
	}
	logger := newLogger(resolved.level)
	apiSession, err := resolved.session(logger)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	return apiSession.SendChatroom(ctx, message)
}

func runHistory(args []string) error {
	flags := &clientFlags{}
	flagSet := pflag.NewFlagSet("fishpi history", pflag.ContinueOnError)
	flags.addTo(flagSet)
	page := flagSet.Int("page", 1, "history page, 1 is the most recent")
	if stop, err := parseFlags(flagSet, args); stop || err != nil {
		return err
	}

	resolved, err := flags.resolve()
	if err != nil {
		return err
	}
	logger := newLogger(resolved.level)
	room, err := roomSession(resolved, logger)
	if err != nil {
		return err
	}
	defer room.Close()

	ctx, stop := signalContext()
	defer stop()

	messages, err := room.History(ctx, *page)
	if err != nil {
		return err
	}
	if resolved.jsonOut {
		return json.NewEncoder(os.Stdout).Encode(messages)
	}
	// The platform returns newest first; print oldest first so the
	// page reads top to bottom.
	for i := len(messages) - 1; i >= 0; i-- {
		fmt.Println(renderMessage(&messages[i]))
	}
	return nil
}

func runOnline(args []string) error {
	flags := &clientFlags{}
	flagSet := pflag.NewFlagSet("fishpi online", pflag.ContinueOnError)
	flags.addTo(flagSet)
	if stop, err := parseFlags(flagSet, args); stop || err != nil {
		return err
	}

	resolved, err := flags.resolve()
	if err != nil {
		return err
	}
	logger := newLogger(resolved.level)
	room, err := roomSession(resolved, logger)
	if err != nil {
		return err
	}
	defer room.Close()

	ctx, stop := signalContext()
	defer stop()

	users, err := room.OnlineUsers(ctx)
	if err != nil {
		return err
	}
	if resolved.jsonOut {
		return json.NewEncoder(os.Stdout).Encode(users)
	}
	fmt.Printf("%d online\n", len(users))
	for _, user := range users {
		fmt.Println("  " + user.UserName)
	}
	return nil
}

func runTopic(args []string) error {
	flags := &clientFlags{}
	flagSet := pflag.NewFlagSet("fishpi topic", pflag.ContinueOnError)
	flags.addTo(flagSet)
	newTopic := flagSet.String("set", "", "propose a new topic instead of showing the current one")
	if stop, err := parseFlags(flagSet, args); stop || err != nil {
		return err
	}

	resolved, err := flags.resolve()
	if err != nil {
		return err
	}
	logger := newLogger(resolved.level)
	room, err := roomSession(resolved, logger)
	if err != nil {
		return err
	}
	defer room.Close()

	ctx, stop := signalContext()
	defer stop()

	if flagSet.Changed("set") {
		return room.SetTopic(ctx, *newTopic)
	}

	topic, err := room.Topic(ctx)
	if err != nil {
		return err
	}
	if resolved.jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{"topic": topic})
	}
	fmt.Println(topic)
	return nil
}

func runRedpacket(args []string) error {
	flags := &clientFlags{}
	flagSet := pflag.NewFlagSet("fishpi redpacket", pflag.ContinueOnError)
	flags.addTo(flagSet)
	gestureName := flagSet.String("gesture", "", "gesture for rock-paper-scissors packets: rock, scissors, paper")
	if stop, err := parseFlags(flagSet, args); stop || err != nil {
		return err
	}

	positional := flagSet.Args()
	if len(positional) != 2 || positional[0] != "open" {
		return fmt.Errorf("usage: fishpi redpacket open <oId> [--gesture rock|scissors|paper]")
	}
	oid := positional[1]

	var gesture *redpacket.Gesture
	if *gestureName != "" {
		parsed, err := parseGestureName(*gestureName)
		if err != nil {
			return err
		}
		gesture = &parsed
	}

	resolved, err := flags.resolve()
	if err != nil {
		return err
	}
	logger := newLogger(resolved.level)
	room, err := roomSession(resolved, logger)
	if err != nil {
		return err
	}
	defer room.Close()

	ctx, stop := signalContext()
	defer stop()

	info, err := room.OpenRedPacket(ctx, oid, gesture)
	if err != nil {
		return err
	}
	if resolved.jsonOut {
		return json.NewEncoder(os.Stdout).Encode(info)
	}
	printRedPacketInfo(os.Stdout, info)
	return nil
}

func parseGestureName(name string) (redpacket.Gesture, error) {
	switch name {
	case "rock":
		return redpacket.GestureRock, nil
	case "scissors":
		return redpacket.GestureScissors, nil
	case "paper":
		return redpacket.GesturePaper, nil
	}
	return redpacket.GestureUnknown, fmt.Errorf("unknown gesture %q (rock, scissors, paper)", name)
}

func printRedPacketInfo(out *os.File, info *redpacket.Info) {
	fmt.Fprintf(out, "%s's packet: %q, %d of %d claimed\n",
		info.Info.UserName, info.Info.Msg, info.Info.Got, info.Info.Count)
	for _, claim := range info.Who {
		fmt.Fprintf(out, "  %s: %+d\n", claim.UserName, claim.Money)
	}
}
