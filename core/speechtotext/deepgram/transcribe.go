// Package deepgram adapts the Deepgram live transcription websocket to the
// same transcriber contract as the funasr client, so listeners can swap
// providers by construction alone.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ava-core/core/audio"
	"github.com/koscakluka/ava-core/core/speechtotext"
)

type TranscriptionClient struct {
	model    string
	language string

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	accumulatedTranscript string
	unendedSegment        bool
}

type ClientOption func(*TranscriptionClient)

func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) { c.model = model }
}

func WithLanguage(language string) ClientOption {
	return func(c *TranscriptionClient) { c.language = language }
}

// NewTranscriptionClient creates a client for the Deepgram listen endpoint.
// The API key is read from DEEPGRAM_API_KEY at dial time.
func NewTranscriptionClient(opts ...ClientOption) *TranscriptionClient {
	client := &TranscriptionClient{
		model:    "nova-3",
		language: "en-US",
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *TranscriptionClient) Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := speechtotext.TranscriptionOptions{EncodingInfo: audio.GetDefaultCaptureEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := c.connectWebsocket(ctx, *encoding)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	c.conn = conn
	go c.readAndProcessMessages(conn, options)

	return nil
}

func (c *TranscriptionClient) connectWebsocket(ctx context.Context, encoding encodingInfo) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenURL, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", c.language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (c *TranscriptionClient) SendAudio(audio []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil || c.closed.Load() {
		return fmt.Errorf("transcription socket is not open")
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}

// Close requests a graceful stream close and shuts the socket. Idempotent.
func (c *TranscriptionClient) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}

	if err := c.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		log.Printf("Failed to request deepgram stream close: %v", err)
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close deepgram socket: %w", err)
	}
	return nil
}

func (c *TranscriptionClient) readAndProcessMessages(conn *websocket.Conn, options speechtotext.TranscriptionOptions) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !c.closed.Load() {
				log.Printf("Failed to read deepgram websocket message: %v", err)
			}
			conn.Close()
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		c.processMessage(msg, options)
	}
}

func (c *TranscriptionClient) processMessage(msg []byte, options speechtotext.TranscriptionOptions) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Printf("Failed to unmarshal deepgram message: %v", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Printf("Failed to unmarshal deepgram message: %v", err)
			return
		}
		if !msgResp.IsFinal || len(msgResp.Channel.Alternatives) == 0 {
			return
		}

		if transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript); transcript != "" {
			c.accumulatedTranscript += " " + transcript
		}
		if msgResp.SpeechFinal {
			c.onSpeechEnded(options)
		}

	case api.TypeUtteranceEndResponse:
		if c.unendedSegment {
			c.onSpeechEnded(options)
		}

	case api.TypeSpeechStartedResponse:
		c.unendedSegment = true
		if options.SpeechDetectedCallback != nil {
			options.SpeechDetectedCallback()
		}
	}
}

func (c *TranscriptionClient) onSpeechEnded(options speechtotext.TranscriptionOptions) {
	c.unendedSegment = false

	fullTranscript := strings.TrimSpace(c.accumulatedTranscript)
	c.accumulatedTranscript = ""
	if fullTranscript != "" && options.TranscriptionCallback != nil {
		options.TranscriptionCallback(fullTranscript)
	}
}
