// Copyright 2026 The FishPi Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/FishPiOffical/fishpi-go/redpacket"
)

// testSession returns a Session with key "test-key" backed by a server
// running the given handler. The server is torn down with the test.
func testSession(t *testing.T, handler http.Handler) *Session {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromKey("test-key")
	if err != nil {
		t.Fatalf("SessionFromKey failed: %v", err)
	}
	return session
}

func writeJSON(t *testing.T, writer http.ResponseWriter, value any) {
	t.Helper()
	writer.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(value); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestChatroomNode(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/chat-room/node/get", func(writer http.ResponseWriter, request *http.Request) {
		if got := request.URL.Query().Get("apiKey"); got != "test-key" {
			t.Errorf("unexpected apiKey: %s", got)
		}
		writeJSON(t, writer, map[string]any{
			"code":   0,
			"msg":    "主节点",
			"data":   "wss://node1.fishpi.example/chat-room-channel",
			"apiKey": "rotated-key",
			"avaliable": []map[string]any{
				{"node": "wss://node1.fishpi.example/chat-room-channel", "name": "主节点", "online": 12, "weight": 100},
				{"node": "wss://node2.fishpi.example/chat-room-channel", "name": "备用节点", "online": 3, "weight": 50},
			},
		})
	})

	session := testSession(t, router)
	info, err := session.ChatroomNode(context.Background())
	if err != nil {
		t.Fatalf("ChatroomNode failed: %v", err)
	}

	want := Node{URL: "wss://node1.fishpi.example/chat-room-channel", Name: "主节点", Online: 12, Weight: 100}
	if info.Recommended != want {
		t.Errorf("Recommended = %+v, want %+v", info.Recommended, want)
	}
	if len(info.Available) != 2 {
		t.Errorf("len(Available) = %d", len(info.Available))
	}

	// The response carried a replacement key; the session must use it
	// from now on.
	if session.Key() != "rotated-key" {
		t.Errorf("Key = %q, want rotated-key", session.Key())
	}
}

func TestChatroomHistory(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/chat-room/more", func(writer http.ResponseWriter, request *http.Request) {
		query := request.URL.Query()
		if query.Get("page") != "2" {
			t.Errorf("unexpected page: %s", query.Get("page"))
		}
		if query.Get("type") != "md" {
			t.Errorf("unexpected type: %s", query.Get("type"))
		}
		if query.Get("apiKey") != "test-key" {
			t.Errorf("unexpected apiKey: %s", query.Get("apiKey"))
		}
		writeJSON(t, writer, map[string]any{
			"code": 0,
			"data": []map[string]any{
				{"oId": "2", "userName": "bob", "content": "second", "time": "2026-08-21 10:00:01"},
				{"oId": "1", "userName": "alice", "content": "first", "time": "2026-08-21 10:00:00"},
			},
		})
	})

	session := testSession(t, router)
	messages, err := session.ChatroomHistory(context.Background(), 2, ContentMarkdown)
	if err != nil {
		t.Fatalf("ChatroomHistory failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d", len(messages))
	}
	if messages[0].OID != "2" || messages[0].UserName != "bob" || messages[0].Content != "second" {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
}

func TestChatroomMessages(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/chat-room/getMessage", func(writer http.ResponseWriter, request *http.Request) {
		query := request.URL.Query()
		if query.Get("oId") != "1700000000000" {
			t.Errorf("unexpected oId: %s", query.Get("oId"))
		}
		if query.Get("mode") != "Before" {
			t.Errorf("unexpected mode: %s", query.Get("mode"))
		}
		if query.Get("size") != "25" {
			t.Errorf("unexpected size: %s", query.Get("size"))
		}
		writeJSON(t, writer, map[string]any{
			"code": 0,
			"data": []map[string]any{{"oId": "1699999999999", "userName": "alice", "content": "earlier"}},
		})
	})

	session := testSession(t, router)
	messages, err := session.ChatroomMessages(context.Background(), "1700000000000", QueryBefore, 25, ContentHTML)
	if err != nil {
		t.Fatalf("ChatroomMessages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].OID != "1699999999999" {
		t.Errorf("unexpected messages: %+v", messages)
	}
}

func TestSendChatroom(t *testing.T) {
	t.Run("delivers content with client tag and key", func(t *testing.T) {
		router := chi.NewRouter()
		router.Post("/chat-room/send", func(writer http.ResponseWriter, request *http.Request) {
			var body map[string]any
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if body["content"] != "hello room" {
				t.Errorf("unexpected content: %v", body["content"])
			}
			if body["apiKey"] != "test-key" {
				t.Errorf("unexpected apiKey: %v", body["apiKey"])
			}
			tag, _ := body["client"].(string)
			if !strings.HasPrefix(tag, "Golang/") {
				t.Errorf("unexpected client tag: %q", tag)
			}
			writeJSON(t, writer, map[string]any{"code": 0})
		})

		session := testSession(t, router)
		if err := session.SendChatroom(context.Background(), "hello room"); err != nil {
			t.Fatalf("SendChatroom failed: %v", err)
		}
	})

	t.Run("platform rejection", func(t *testing.T) {
		router := chi.NewRouter()
		router.Post("/chat-room/send", func(writer http.ResponseWriter, _ *http.Request) {
			writeJSON(t, writer, map[string]any{"code": -1, "msg": "发言过于频繁"})
		})

		session := testSession(t, router)
		err := session.SendChatroom(context.Background(), "spam")
		if err == nil {
			t.Fatal("expected error for rejected send")
		}
		if !IsError(err, -1) {
			t.Errorf("expected platform code -1, got: %v", err)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		session := testSession(t, chi.NewRouter())
		if err := session.SendChatroom(context.Background(), ""); err == nil {
			t.Fatal("expected error for empty content")
		}
	})
}

func TestRevokeChatroom(t *testing.T) {
	router := chi.NewRouter()
	router.Delete("/chat-room/revoke/{oid}", func(writer http.ResponseWriter, request *http.Request) {
		if got := chi.URLParam(request, "oid"); got != "1700000000000" {
			t.Errorf("unexpected oid: %s", got)
		}
		var body map[string]any
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["apiKey"] != "test-key" {
			t.Errorf("unexpected apiKey: %v", body["apiKey"])
		}
		writeJSON(t, writer, map[string]any{"code": 0})
	})

	session := testSession(t, router)
	if err := session.RevokeChatroom(context.Background(), "1700000000000"); err != nil {
		t.Fatalf("RevokeChatroom failed: %v", err)
	}
}

func TestOnlineUsers(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/chat-room/online-users", func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(t, writer, map[string]any{
			"code": 0,
			"data": []map[string]any{
				{"userName": "alice", "userAvatarURL": "https://a.example/1.png", "homePage": "https://fishpi.example/member/alice"},
				{"userName": "bob", "userAvatarURL": "https://a.example/2.png"},
			},
		})
	})

	session := testSession(t, router)
	users, err := session.OnlineUsers(context.Background())
	if err != nil {
		t.Fatalf("OnlineUsers failed: %v", err)
	}
	if len(users) != 2 || users[0].UserName != "alice" || users[1].UserName != "bob" {
		t.Errorf("unexpected users: %+v", users)
	}
}

func TestDiscussing(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/chat-room/discussing", func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(t, writer, map[string]any{"code": 0, "data": "Go 泛型实践"})
	})

	session := testSession(t, router)
	topic, err := session.Discussing(context.Background())
	if err != nil {
		t.Fatalf("Discussing failed: %v", err)
	}
	if topic != "Go 泛型实践" {
		t.Errorf("topic = %q", topic)
	}
}

func TestMutes(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/chat-room/si-guo-list", func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(t, writer, map[string]any{
			"code": 0,
			"data": []map[string]any{
				{"time": 1767000000000, "userName": "noisy", "userNickname": "吵闹", "userAvatarURL": "https://a.example/3.png"},
			},
		})
	})

	session := testSession(t, router)
	mutes, err := session.Mutes(context.Background())
	if err != nil {
		t.Fatalf("Mutes failed: %v", err)
	}
	if len(mutes) != 1 || mutes[0].UserName != "noisy" || mutes[0].Time != 1767000000000 {
		t.Errorf("unexpected mutes: %+v", mutes)
	}
}

func TestRawMessage(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/cr/raw/{oid}", func(writer http.ResponseWriter, request *http.Request) {
		if got := chi.URLParam(request, "oid"); got != "42" {
			t.Errorf("unexpected oid: %s", got)
		}
		writer.Header().Set("Content-Type", "text/html")
		writer.Write([]byte("<!--oId:42-->hello **world**<!--rev:2-->"))
	})

	session := testSession(t, router)
	raw, err := session.RawMessage(context.Background(), "42")
	if err != nil {
		t.Fatalf("RawMessage failed: %v", err)
	}
	if raw != "hello **world**" {
		t.Errorf("raw = %q", raw)
	}
}

func TestBarrageCost(t *testing.T) {
	t.Run("scraped from page", func(t *testing.T) {
		router := chi.NewRouter()
		router.Get("/cr", func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "text/html")
			writer.Write([]byte(`<html><div class="tip">发送弹幕每次将花费 <b>36</b> 积分</div></html>`))
		})

		session := testSession(t, router)
		cost, err := session.BarrageCost(context.Background())
		if err != nil {
			t.Fatalf("BarrageCost failed: %v", err)
		}
		if cost.Cost != 36 || cost.Unit != "积分" {
			t.Errorf("cost = %+v", cost)
		}
	})

	t.Run("default when markup changes", func(t *testing.T) {
		router := chi.NewRouter()
		router.Get("/cr", func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "text/html")
			writer.Write([]byte("<html><body>redesigned</body></html>"))
		})

		session := testSession(t, router)
		cost, err := session.BarrageCost(context.Background())
		if err != nil {
			t.Fatalf("BarrageCost failed: %v", err)
		}
		if cost.Cost != 20 || cost.Unit != "积分" {
			t.Errorf("cost = %+v", cost)
		}
	})
}

func TestOpenRedPacket(t *testing.T) {
	t.Run("successful open", func(t *testing.T) {
		router := chi.NewRouter()
		router.Post("/chat-room/red-packet/open", func(writer http.ResponseWriter, request *http.Request) {
			var body map[string]any
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if body["oId"] != "1700000000000" {
				t.Errorf("unexpected oId: %v", body["oId"])
			}
			if body["apiKey"] != "test-key" {
				t.Errorf("unexpected apiKey: %v", body["apiKey"])
			}
			if _, present := body["gesture"]; present {
				t.Error("gesture must be absent for plain packets")
			}
			writeJSON(t, writer, map[string]any{
				"info": map[string]any{
					"count":         2,
					"got":           1,
					"msg":           "摸鱼快乐",
					"userName":      "alice",
					"userAvatarURL": "https://a.example/1.png",
				},
				"recivers": []string{"bob"},
				"who": []map[string]any{
					{"userId": "2", "userName": "bob", "avatar": "https://a.example/2.png", "userMoney": 12, "time": "2026-08-21 10:00:00"},
				},
			})
		})

		session := testSession(t, router)
		info, err := session.OpenRedPacket(context.Background(), "1700000000000", nil)
		if err != nil {
			t.Fatalf("OpenRedPacket failed: %v", err)
		}
		if info.Info.Count != 2 || info.Info.Got != 1 || info.Info.UserName != "alice" {
			t.Errorf("unexpected summary: %+v", info.Info)
		}
		if len(info.Receivers) != 1 || info.Receivers[0] != "bob" {
			t.Errorf("unexpected receivers: %v", info.Receivers)
		}
		if len(info.Who) != 1 || info.Who[0].Money != 12 {
			t.Errorf("unexpected openers: %+v", info.Who)
		}
	})

	t.Run("gesture forwarded", func(t *testing.T) {
		router := chi.NewRouter()
		router.Post("/chat-room/red-packet/open", func(writer http.ResponseWriter, request *http.Request) {
			var body map[string]any
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if got, _ := body["gesture"].(float64); got != 1 {
				t.Errorf("unexpected gesture: %v", body["gesture"])
			}
			writeJSON(t, writer, map[string]any{"info": map[string]any{"count": 1, "got": 1}})
		})

		session := testSession(t, router)
		gesture := redpacket.GestureScissors
		if _, err := session.OpenRedPacket(context.Background(), "1", &gesture); err != nil {
			t.Fatalf("OpenRedPacket failed: %v", err)
		}
	})

	t.Run("exhausted packet", func(t *testing.T) {
		router := chi.NewRouter()
		router.Post("/chat-room/red-packet/open", func(writer http.ResponseWriter, _ *http.Request) {
			writeJSON(t, writer, map[string]any{"code": -1, "msg": "该红包已被领完"})
		})

		session := testSession(t, router)
		_, err := session.OpenRedPacket(context.Background(), "1", nil)
		if err == nil {
			t.Fatal("expected error for exhausted packet")
		}
		if !errors.Is(err, ErrRedPacketExhausted) {
			t.Errorf("expected ErrRedPacketExhausted, got: %v", err)
		}
	})

	t.Run("already opened", func(t *testing.T) {
		router := chi.NewRouter()
		router.Post("/chat-room/red-packet/open", func(writer http.ResponseWriter, _ *http.Request) {
			writeJSON(t, writer, map[string]any{"code": -1, "msg": "您已领取过该红包"})
		})

		session := testSession(t, router)
		_, err := session.OpenRedPacket(context.Background(), "1", nil)
		if !errors.Is(err, ErrRedPacketAlreadyOpened) {
			t.Errorf("expected ErrRedPacketAlreadyOpened, got: %v", err)
		}
	})
}

func TestChatEndpoints(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/chat/get-list", func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(t, writer, map[string]any{
			"code": 0,
			"data": []map[string]any{
				{"oId": "9", "senderUserName": "bob", "receiverUserName": "alice", "preview": "hi", "content": "<p>hi</p>", "markdown": "hi"},
			},
		})
	})
	router.Get("/chat/get-message", func(writer http.ResponseWriter, request *http.Request) {
		query := request.URL.Query()
		if query.Get("toUser") != "bob" {
			t.Errorf("unexpected toUser: %s", query.Get("toUser"))
		}
		if query.Get("page") != "1" || query.Get("pageSize") != "20" {
			t.Errorf("unexpected paging: page=%s pageSize=%s", query.Get("page"), query.Get("pageSize"))
		}
		writeJSON(t, writer, map[string]any{
			"code": 0,
			"data": []map[string]any{{"oId": "9", "senderUserName": "bob", "markdown": "hi"}},
		})
	})
	router.Get("/chat/mark-as-read", func(writer http.ResponseWriter, request *http.Request) {
		if got := request.URL.Query().Get("fromUser"); got != "bob" {
			t.Errorf("unexpected fromUser: %s", got)
		}
		writeJSON(t, writer, map[string]any{"code": 0})
	})
	router.Get("/chat/has-unread", func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(t, writer, map[string]any{"code": 0, "data": nil})
	})
	router.Get("/chat/revoke", func(writer http.ResponseWriter, request *http.Request) {
		if got := request.URL.Query().Get("oId"); got != "9" {
			t.Errorf("unexpected oId: %s", got)
		}
		writeJSON(t, writer, map[string]any{"code": 0})
	})

	session := testSession(t, router)
	ctx := context.Background()

	list, err := session.ChatList(ctx)
	if err != nil {
		t.Fatalf("ChatList failed: %v", err)
	}
	if len(list) != 1 || list[0].SenderName != "bob" {
		t.Errorf("unexpected list: %+v", list)
	}

	messages, err := session.ChatMessages(ctx, "bob", 1, 20)
	if err != nil {
		t.Fatalf("ChatMessages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Markdown != "hi" {
		t.Errorf("unexpected messages: %+v", messages)
	}

	if err := session.MarkChatRead(ctx, "bob"); err != nil {
		t.Fatalf("MarkChatRead failed: %v", err)
	}

	unread, err := session.ChatUnread(ctx)
	if err != nil {
		t.Fatalf("ChatUnread failed: %v", err)
	}
	if unread != nil {
		t.Errorf("expected nil unread, got: %+v", unread)
	}

	if err := session.RevokeChat(ctx, "9"); err != nil {
		t.Fatalf("RevokeChat failed: %v", err)
	}
}

func TestChannelURLs(t *testing.T) {
	client, err := NewClient(ClientConfig{BaseURL: "https://fishpi.example"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromKey("test-key")
	if err != nil {
		t.Fatalf("SessionFromKey failed: %v", err)
	}

	if got := session.ChatChannelURL("bob"); got != "wss://fishpi.example/chat-channel?apiKey=test-key&toUser=bob" {
		t.Errorf("ChatChannelURL = %q", got)
	}
	if got := session.UserChannelURL(); got != "wss://fishpi.example/user-channel?apiKey=test-key" {
		t.Errorf("UserChannelURL = %q", got)
	}
}
