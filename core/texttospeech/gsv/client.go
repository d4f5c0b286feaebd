// Package gsv implements a streaming client for a GPT-SoVITS style
// synthesis server: one POST per text unit, chunked PCM response.
package gsv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ava-core/core/audio"
	"github.com/koscakluka/ava-core/core/texttospeech"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const responseChunkSize = 4096

// Settings is the per-voice request payload sent alongside every synthesis
// request. Zero fields are omitted so server defaults apply.
type Settings struct {
	Voice       string  `json:"voice,omitempty"`
	Language    string  `json:"text_language,omitempty"`
	Speed       float64 `json:"speed,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

type synthesisRequest struct {
	Settings
	Text      string `json:"text"`
	Streaming bool   `json:"streaming"`
	Format    string `json:"format"`
}

type Client struct {
	baseURL      string
	settings     Settings
	encodingInfo audio.EncodingInfo

	httpClient *http.Client
}

type ClientOption func(*Client)

// WithSettings sets the voice settings copied into every request body.
func WithSettings(settings Settings) ClientOption {
	return func(c *Client) { c.settings = settings }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) ClientOption {
	return func(c *Client) {
		if !encodingInfo.IsZero() {
			c.encodingInfo = encodingInfo
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL:      baseURL,
		encodingInfo: audio.GetDefaultSynthesisEncodingInfo(),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.encodingInfo
}

// Synthesize streams one text unit through the server. Response bytes are
// handed to the registered chunk callback in arrival order, with the WAV
// container header of the first chunk stripped so only raw PCM is delivered.
func (c *Client) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) error {
	options := texttospeech.SynthesisOptions{EncodingInfo: c.encodingInfo}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.Int("request.text_length", len(text)))

	request := synthesisRequest{
		Text:      text,
		Streaming: true,
		Format:    "wav",
	}
	if err := copier.Copy(&request.Settings, &c.settings); err != nil {
		err = fmt.Errorf("failed to copy voice settings: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	requestBodyBytes, err := json.Marshal(request)
	if err != nil {
		err = fmt.Errorf("error marshalling JSON: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	span.SetAttributes(attribute.String("request.url", req.URL.String()))

	requestStarted := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, err := io.ReadAll(resp.Body); err == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}

		err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	buffer := make([]byte, responseChunkSize)
	firstChunk := true
	receivedBytes := 0
	for {
		n, err := resp.Body.Read(buffer)
		if n > 0 {
			chunk := buffer[:n]
			if firstChunk {
				span.SetAttributes(attribute.Float64("response.request_to_first_chunk_time", time.Since(requestStarted).Seconds()))
				chunk = audio.TrimWAVHeader(chunk)
				firstChunk = false
			}
			receivedBytes += len(chunk)
			if options.AudioChunkCallback != nil && len(chunk) > 0 {
				options.AudioChunkCallback(chunk)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			err = fmt.Errorf("error reading response stream: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	span.SetAttributes(attribute.Int("response.audio_bytes", receivedBytes))
	return nil
}
