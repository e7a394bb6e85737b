// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/FishPiOffical/fishpi-go/chatroom"
	"github.com/FishPiOffical/fishpi-go/stream"
)

func runListen(args []string) error {
	flags := &clientFlags{}
	flagSet := pflag.NewFlagSet("fishpi listen", pflag.ContinueOnError)
	flags.addTo(flagSet)
	if stop, err := parseFlags(flagSet, args); stop || err != nil {
		return err
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

	room, err := chatroom.NewSession(chatroom.SessionConfig{
		Session: apiSession,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer room.Close()

	// A Disconnected status with a cause is terminal: the reconnect
	// budget is spent.
	terminal := make(chan error, 1)
	room.AddStatusListener(func(status stream.Status) {
		switch status.State {
		case stream.Connected:
			logger.Info("connected to chatroom")
		case stream.Reconnecting:
			logger.Warn("connection lost, reconnecting",
				"attempt", status.Attempt, "error", status.Err)
		case stream.Disconnected:
			if status.Err != nil {
				select {
				case terminal <- status.Err:
				default:
				}
			}
		}
	})

	room.AddListener(func(event chatroom.Event) {
		if resolved.jsonOut {
			fmt.Fprintln(os.Stdout, event.Raw)
			return
		}
		if line := renderEvent(event); line != "" {
			fmt.Fprintln(os.Stdout, line)
		}
	})

	ctx, stop := signalContext()
	defer stop()

	if err := room.Connect(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-terminal:
		return err
	}
}

// renderEvent formats one event for the text stream. Unknown events
// render empty and are skipped; they still reach the debug log.
func renderEvent(event chatroom.Event) string {
	switch event.Kind {
	case chatroom.KindMessage, chatroom.KindRedPacket, chatroom.KindWeather, chatroom.KindMusic:
		return renderMessage(event.Message)
	case chatroom.KindRedPacketStatus:
		status := event.RedPacketStatus
		return fmt.Sprintf("* %s opened %s's red packet (%d/%d claimed)",
			status.WhoGot, status.WhoGive, status.Got, status.Count)
	case chatroom.KindBarrage:
		barrage := event.Barrage
		name := barrage.Nickname
		if name == "" {
			name = barrage.UserName
		}
		return fmt.Sprintf("[barrage] %s: %s", name, barrage.Content)
	case chatroom.KindRevoke:
		return fmt.Sprintf("* message %s was revoked", event.Revoke.OID)
	case chatroom.KindDiscussChanged:
		return "* topic is now: " + event.DiscussChanged.Topic
	case chatroom.KindOnline:
		return fmt.Sprintf("* %d online", event.Online.Count)
	case chatroom.KindCustom:
		return "* " + event.Custom.Message
	default:
		return ""
	}
}

// renderMessage formats one room message, card-aware. History and the
// live stream share it.
func renderMessage(message *chatroom.Message) string {
	switch {
	case message.RedPacket != nil:
		packet := message.RedPacket
		return fmt.Sprintf("%s %s sent a %s red packet: %q (%d pts, %d shares)",
			message.Time, message.DisplayName(), packet.Type, packet.Msg, packet.Money, packet.Count)
	case message.Weather != nil:
		weather := message.Weather
		return fmt.Sprintf("%s %s shared the weather in %s: %s",
			message.Time, message.DisplayName(), weather.City, weather.Description)
	case message.Music != nil:
		music := message.Music
		return fmt.Sprintf("%s %s shared a track: %s (%s)",
			message.Time, message.DisplayName(), music.Title, music.From)
	default:
		return fmt.Sprintf("%s %s: %s", message.Time, message.DisplayName(), messageText(message))
	}
}

// messageText prefers the markdown source over rendered HTML.
func messageText(message *chatroom.Message) string {
	if message.Markdown != "" {
		return message.Markdown
	}
	return message.Content
}
