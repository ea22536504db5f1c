// Package client maintains the websocket session with the companion
// server. Binary frames carry MP3 audio for the playback pipeline; text
// frames carry JSON control events and transcript deltas.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event is a JSON control frame, in either direction.
type Event struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Server -> client event types.
const (
	EventMessageStart = "message_start"
	EventText         = "text"
	EventMessageEnd   = "message_end"
	EventInterrupt    = "interrupt"
	EventError        = "error"
)

// Client -> server event types.
const (
	eventUserMessage = "message"
)

// AudioSink is the part of the playback pipeline the session drives.
type AudioSink interface {
	QueueAudio(data []byte)
	Flush()
	Reset()
}

// Callbacks deliver transcript and session state to the UI. Nil fields
// are skipped.
type Callbacks struct {
	OnMessageStart func()
	OnText         func(content string)
	OnMessageEnd   func()
	OnError        func(message string)
	OnDisconnect   func(err error)
}

// Session is one live websocket connection to a companion.
type Session struct {
	conn      *websocket.Conn
	audio     AudioSink
	cb        Callbacks
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// WebSocketURL derives the chat websocket endpoint from the service base
// URL.
func WebSocketURL(serverURL, companionID string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}

	u.Path = fmt.Sprintf("/api/v1/chat/%s/ws", companionID)
	return u.String(), nil
}

// Dial opens the chat session for the given companion.
func Dial(ctx context.Context, serverURL, companionID string, audio AudioSink, cb Callbacks) (*Session, error) {
	wsURL, err := WebSocketURL(serverURL, companionID)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to %s (status %d): %w", wsURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}

	log.Debug().Str("url", wsURL).Msg("Chat session connected")

	return &Session{
		conn:   conn,
		audio:  audio,
		cb:     cb,
		closed: make(chan struct{}),
	}, nil
}

// Run reads frames until the connection drops or Close is called. It is
// meant to run on its own goroutine; audio delivery never blocks it
// because QueueAudio is non-blocking.
func (s *Session) Run() {
	defer s.conn.Close()

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closed:
				// deliberate shutdown, not a transport failure
			default:
				log.Debug().Err(err).Msg("Chat session read failed")
				if s.cb.OnDisconnect != nil {
					s.cb.OnDisconnect(err)
				}
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.audio.QueueAudio(data)
		case websocket.TextMessage:
			s.handleEvent(data)
		}
	}
}

func (s *Session) handleEvent(data []byte) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Warn().Err(err).Msg("Dropping malformed control event")
		return
	}

	switch ev.Type {
	case EventMessageStart:
		// New companion turn: nothing from the previous one may play.
		s.audio.Reset()
		if s.cb.OnMessageStart != nil {
			s.cb.OnMessageStart()
		}
	case EventText:
		if s.cb.OnText != nil {
			s.cb.OnText(ev.Content)
		}
	case EventMessageEnd:
		s.audio.Flush()
		if s.cb.OnMessageEnd != nil {
			s.cb.OnMessageEnd()
		}
	case EventInterrupt:
		s.audio.Reset()
	case EventError:
		log.Warn().Str("message", ev.Content).Msg("Server reported an error")
		if s.cb.OnError != nil {
			s.cb.OnError(ev.Content)
		}
	default:
		log.Debug().Str("type", ev.Type).Msg("Ignoring unknown control event")
	}
}

// SendMessage sends a user chat message to the companion.
func (s *Session) SendMessage(content string) error {
	return s.writeEvent(Event{Type: eventUserMessage, Content: content})
}

// SendInterrupt cuts the companion off: local playback is discarded
// immediately rather than waiting for the server to confirm.
func (s *Session) SendInterrupt() error {
	s.audio.Reset()
	return s.writeEvent(Event{Type: EventInterrupt})
}

func (s *Session) writeEvent(ev Event) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.WriteJSON(ev); err != nil {
		return fmt.Errorf("failed to send %s event: %w", ev.Type, err)
	}
	return nil
}

// Close shuts the session down; Run returns shortly after. Safe to call
// more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)

		s.writeMu.Lock()
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()

		s.conn.Close()
		log.Debug().Msg("Chat session closed")
	})
}
