package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/c111spike/blindfold-voice/core/speech"
)

// Speak synthesizes text through the REST speak API and plays the returned
// audio through the sink. The speech-ended notification fires once playback
// drains, not when the HTTP request completes.
func (c *Client) Speak(ctx context.Context, text string) error {
	if c.sink == nil {
		return fmt.Errorf("%w: no playback sink configured", speech.ErrUnavailable)
	}

	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode speak request: %w", err)
	}

	speakURL := url.URL{
		Scheme: "https",
		Host:   "api.deepgram.com", Path: "/v1/speak",
		RawQuery: url.Values{
			"model":       {c.voice},
			"encoding":    {c.opts.EncodingInfo.Format.Name()},
			"sample_rate": {strconv.Itoa(c.opts.EncodingInfo.SampleRate)},
			"container":   {"none"},
		}.Encode(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, speakURL.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build speak request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speak request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: speak returned status %d", speech.ErrPermissionDenied, resp.StatusCode)
	default:
		return fmt.Errorf("speak returned unexpected status %d", resp.StatusCode)
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read synthesized audio: %w", err)
	}

	go c.playAndNotify(pcm)
	return nil
}

func (c *Client) playAndNotify(pcm []byte) {
	if err := c.sink.SendAudio(pcm); err != nil {
		log.Println("Failed to send synthesized audio to sink", "error", err)
	}
	if err := c.sink.AwaitDrain(); err != nil {
		log.Println("Failed to await playback drain", "error", err)
	}

	c.connMu.Lock()
	callback := c.opts.SpeechEndedCallback
	c.connMu.Unlock()
	if callback != nil {
		callback()
	}
}
