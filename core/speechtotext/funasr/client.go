// Package funasr implements the duplex transcription socket protocol used by
// FunASR-style servers: binary PCM frames out, JSON recognition events in.
package funasr

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ava-core/core/audio"
	"github.com/koscakluka/ava-core/core/speechtotext"
)

const transcribePath = "/ws/transcribe"

// serverMessage is the inbound JSON envelope. Code 1 announces detected
// speech (info carries detail), code 0 carries a finalized transcript in
// data.
type serverMessage struct {
	Code int    `json:"code"`
	Data string `json:"data"`
	Info string `json:"info"`
}

type TranscriptionClient struct {
	host                string
	language            string
	speakerVerification bool

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool
}

type ClientOption func(*TranscriptionClient)

func WithLanguage(language string) ClientOption {
	return func(c *TranscriptionClient) { c.language = language }
}

func WithSpeakerVerification(enabled bool) ClientOption {
	return func(c *TranscriptionClient) { c.speakerVerification = enabled }
}

// NewTranscriptionClient creates a client for the given host ("host:port").
// The socket is not dialed until Transcribe.
func NewTranscriptionClient(host string, opts ...ClientOption) *TranscriptionClient {
	client := &TranscriptionClient{
		host:     host,
		language: "zh",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Transcribe dials the duplex socket and starts the read loop. A handshake
// failure is returned to the caller; nothing is left running in that case.
func (c *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := speechtotext.TranscriptionOptions{EncodingInfo: audio.GetDefaultCaptureEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}

	queryParams := url.Values{}
	queryParams.Set("lang", c.language)
	sv := "0"
	if c.speakerVerification {
		sv = "1"
	}
	queryParams.Set("sv", sv)

	transcribeURL := url.URL{
		Scheme:   "ws",
		Host:     c.host,
		Path:     transcribePath,
		RawQuery: queryParams.Encode(),
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, transcribeURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to open socket connection to transcription server: %w", err)
	}

	c.conn = conn
	go c.readAndProcessMessages(conn, options)

	return nil
}

// SendAudio ships one batch of raw PCM as a single binary message.
func (c *TranscriptionClient) SendAudio(audio []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil || c.closed.Load() {
		return fmt.Errorf("transcription socket is not open")
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to transcription socket: %w", err)
	}
	return nil
}

// Close shuts the socket down, which also ends the read loop. Idempotent.
func (c *TranscriptionClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close transcription socket: %w", err)
	}
	return nil
}

// readAndProcessMessages parses inbound text frames until the socket dies.
// Malformed messages are logged and dropped; a read error ends the session
// (reconnecting is the caller's decision).
func (c *TranscriptionClient) readAndProcessMessages(conn *websocket.Conn, options speechtotext.TranscriptionOptions) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !c.closed.Load() {
				log.Printf("Failed to read transcription socket message: %v", err)
			}
			conn.Close()
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var parsedMsg serverMessage
		if err := json.Unmarshal(msg, &parsedMsg); err != nil {
			log.Printf("Failed to unmarshal transcription server message: %v", err)
			continue
		}

		switch parsedMsg.Code {
		case 1:
			if options.SpeechDetectedCallback != nil {
				options.SpeechDetectedCallback()
			}
		case 0:
			if parsedMsg.Data != "" && options.TranscriptionCallback != nil {
				options.TranscriptionCallback(parsedMsg.Data)
			}
		}
	}
}
