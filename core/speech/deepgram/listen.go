package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"

	"github.com/c111spike/blindfold-voice/core/speech"
	"github.com/c111spike/blindfold-voice/internal/utils"
)

// connection wraps one live-listen websocket. A new connection is made per
// StartListening; the coordinator's restart serializer never overlaps them.
type connection struct {
	ws *websocket.Conn
	mu sync.Mutex

	accumulatedTranscript string
	unendedSegment        bool
	closeRequested        bool

	// lastSentTime is nil until the first write goes out.
	lastSentTime *time.Time
}

func (c *Client) connectListen(encoding *encodingInfo) (*connection, error) {
	listenURL, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", "en-US")
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	ws, _, err := websocket.DefaultDialer.Dial(listenURL.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return &connection{ws: ws}, nil
}

func (conn *connection) sendAudio(chunk []byte) {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	conn.lastSentTime = utils.Ptr(time.Now())
	if err := conn.ws.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		log.Println("Failed to write audio to deepgram client", "error", err)
	}
}

func (conn *connection) sendKeepAlive() {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	conn.lastSentTime = utils.Ptr(time.Now())
	if err := conn.ws.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: "KeepAlive"}); err != nil {
		log.Println("Failed to write keepalive to deepgram client", "error", err)
	}
}

// requestClose asks the server to flush and close; the read loop observes
// the close and reports the stop.
func (conn *connection) requestClose() error {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	conn.closeRequested = true
	if err := conn.ws.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream through websocket: %w", err)
	}
	return nil
}

func (conn *connection) close() {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	_ = conn.ws.Close()
}

func (conn *connection) readAndProcessMessages(ctx context.Context, options speech.Options, onClosed func()) {
	keepAliveCtx, cancelKeepAlive := context.WithCancel(ctx)
	defer cancelKeepAlive()
	go conn.keepAlive(keepAliveCtx)

	for {
		msgType, msg, err := conn.ws.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" && !conn.closeRequested {
				log.Println("Failed to read deepgram websocket message", "error", err)
			}
			_ = conn.ws.Close()
			onClosed()
			return
		}
		if msgType != websocket.BinaryMessage {
			conn.processMessage(msg, options)
		}
	}
}

func (conn *connection) processMessage(msg []byte, options speech.Options) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		log.Println("Failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message", err)
			return
		}
		if len(msgResp.Channel.Alternatives) == 0 {
			return
		}
		transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if len(transcript) == 0 {
			return
		}

		if msgResp.IsFinal {
			conn.accumulatedTranscript += " " + transcript
		}
		if options.PartialResultCallback != nil {
			conn.unendedSegment = true
			options.PartialResultCallback(transcript)
		}
		if msgResp.IsFinal && msgResp.SpeechFinal {
			conn.onUtteranceEnded(options)
		}

	case api.TypeUtteranceEndResponse:
		if conn.unendedSegment {
			conn.onUtteranceEnded(options)
		}
	}
}

func (conn *connection) onUtteranceEnded(options speech.Options) {
	conn.unendedSegment = false
	fullTranscript := strings.TrimSpace(conn.accumulatedTranscript)
	conn.accumulatedTranscript = ""
	if len(fullTranscript) > 0 && options.FinalResultCallback != nil {
		options.FinalResultCallback(fullTranscript)
	}
}

// keepAlive keeps an idle socket open; Deepgram drops connections that stay
// silent for more than ~10 seconds. Sockets that carried audio recently do
// not need the extra traffic.
func (conn *connection) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.mu.Lock()
			idle := conn.lastSentTime == nil || time.Since(*conn.lastSentTime) >= 5*time.Second
			conn.mu.Unlock()
			if idle {
				conn.sendKeepAlive()
			}
		}
	}
}
