// Package deepgram implements the coordinator's hardware adapter on top of
// Deepgram's live-listen websocket and speak REST APIs, with local capture
// and playback devices standing in for the platform microphone and speaker.
package deepgram

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/c111spike/blindfold-voice/core/audio"
	"github.com/c111spike/blindfold-voice/core/speech"
)

// AudioSource is the local capture device feeding the recognizer.
type AudioSource interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

// AudioSink is the local playback device draining synthesized audio.
// AwaitDrain blocks until everything sent so far has been played.
type AudioSink interface {
	SendAudio(audio []byte) error
	AwaitDrain() error
}

type Client struct {
	source AudioSource
	sink   AudioSink

	apiKey     string
	model      string
	voice      string
	httpClient *http.Client

	opts speech.Options

	conn   *connection
	connMu sync.Mutex
}

type ClientOption func(*Client)

// WithAPIKey overrides the DEEPGRAM_API_KEY environment lookup.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

// WithModel selects the recognition model.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithVoice selects the synthesis voice model.
func WithVoice(voice string) ClientOption {
	return func(c *Client) { c.voice = voice }
}

func NewClient(source AudioSource, sink AudioSink, opts ...ClientOption) (*Client, error) {
	client := &Client{
		source: source,
		sink:   sink,
		model:  "nova-3",
		voice:  "aura-2-thalia-en",
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
		if !ok {
			return nil, fmt.Errorf("%w: deepgram api key not found", speech.ErrUnavailable)
		}
		client.apiKey = apiKey
	}

	return client, nil
}

// Open binds the coordinator's callbacks. Safe to call again to rebind.
func (c *Client) Open(_ context.Context, opts ...speech.Option) error {
	options := speech.Options{EncodingInfo: audio.GetDefaultEncodingInfo()}
	if c.source != nil {
		options.EncodingInfo = c.source.EncodingInfo()
	}
	for _, opt := range opts {
		opt(&options)
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	c.opts = options
	return nil
}

// StartListening opens the live-listen socket and starts feeding it captured
// audio. The listening-started notification fires once the socket is up.
func (c *Client) StartListening(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	encoding, err := convertEncoding(c.opts.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := c.connectListen(encoding)
	if err != nil {
		return err
	}
	c.conn = conn
	go conn.readAndProcessMessages(ctx, c.opts, c.onConnClosed)

	if c.source != nil {
		if err := c.source.StartCapture(ctx, func(chunk []byte) {
			c.sendAudio(chunk)
		}); err != nil {
			conn.close()
			c.conn = nil
			return fmt.Errorf("failed to start capture: %w", err)
		}
	}

	if c.opts.ListeningStartedCallback != nil {
		c.opts.ListeningStartedCallback()
	}
	return nil
}

// StopListening closes the recognition stream. The listening-stopped
// notification fires when the socket actually closes.
func (c *Client) StopListening(_ context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.source != nil {
		if err := c.source.StopCapture(); err != nil {
			return fmt.Errorf("failed to stop capture: %w", err)
		}
	}

	if c.conn == nil {
		// Nothing was open; report the stop directly so callers that stop
		// defensively still get their acknowledgement.
		if c.opts.ListeningStoppedCallback != nil {
			c.opts.ListeningStoppedCallback()
		}
		return nil
	}

	conn := c.conn
	c.conn = nil
	return conn.requestClose()
}

func (c *Client) onConnClosed() {
	c.connMu.Lock()
	c.conn = nil
	callback := c.opts.ListeningStoppedCallback
	c.connMu.Unlock()

	if callback != nil {
		callback()
	}
}

func (c *Client) sendAudio(chunk []byte) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn != nil {
		conn.sendAudio(chunk)
	}
}
