package heights

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/Vikkingg13/BitCapsule/threads"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/tokenized/logger"
)

const (
	// DefaultFeedURL is the mempool.space block notification websocket.
	DefaultFeedURL = "wss://mempool.space/api/v1/ws"

	pingFrequency = 30 * time.Second
)

type feedRequest struct {
	Action string   `json:"action"`
	Data   []string `json:"data"`
}

type feedMessage struct {
	Block *struct {
		Height uint32 `json:"height"`
	} `json:"block"`
}

// Feed delivers the height of each new block announced on a websocket.
type Feed struct {
	url string
}

func NewFeed(url string) *Feed {
	if len(url) == 0 {
		url = DefaultFeedURL
	}

	return &Feed{
		url: url,
	}
}

// Listen subscribes to block notifications and writes new heights to the channel until the
// interrupt is closed or the connection ends. It returns threads.Interrupted when interrupted.
func (f *Feed) Listen(ctx context.Context, heights chan<- uint32,
	interrupt <-chan interface{}) error {

	conn, response, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		if errors.Cause(err) == websocket.ErrBadHandshake && response != nil {
			b, rerr := io.ReadAll(response.Body)
			if rerr == nil {
				logger.WarnWithFields(ctx, []logger.Field{
					logger.String("body", string(b)),
				}, "Failed to dial websocket : %s", err)
				return errors.Wrap(err, "dial")
			}
		}

		logger.Warn(ctx, "Failed to dial websocket : %s", err)
		return errors.Wrap(err, "dial")
	}

	if err := conn.WriteJSON(feedRequest{
		Action: "want",
		Data:   []string{"blocks"},
	}); err != nil {
		conn.Close()
		return errors.Wrap(err, "subscribe")
	}

	// Listen for messages in separate thread.
	done := make(chan interface{})
	go func() {
		for {
			_, messageBytes, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure,
					websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Info(ctx, "Websocket close : %s", err)
				} else {
					logger.Info(ctx, "Failed to read websocket message : %s", err)
				}

				conn.Close()
				break
			}

			message := &feedMessage{}
			if err := json.Unmarshal(messageBytes, message); err != nil {
				logger.Warn(ctx, "Invalid feed message : %s", err)
				continue
			}

			if message.Block == nil {
				continue // not a block notification
			}

			select {
			case heights <- message.Block.Height:
			case <-interrupt:
				conn.Close()
				close(done)
				return
			}
		}

		close(done)
	}()

	wait := func() {
		start := time.Now()
		for {
			select {
			case <-time.After(time.Second):
				logger.WarnWithFields(ctx, []logger.Field{
					logger.Timestamp("start", start.UnixNano()),
					logger.MillisecondsFromNano("elapsed_ms", time.Since(start).Nanoseconds()),
				}, "Waiting for: Block Feed")

			case <-done:
				return
			}
		}
	}

	for {
		select {
		case <-time.After(pingFrequency):
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"),
				time.Now().Add(time.Second)); err != nil {
				conn.Close()
				wait()
				return errors.Wrap(err, "send ping")
			}

		case <-done:
			return nil

		case <-interrupt:
			// Cleanly close the connection by sending a close message and then waiting (with
			// timeout) for the server to close the connection.
			if err := conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
				conn.Close()
				wait()
				return threads.Interrupted
			}

			select {
			case <-done:
			case <-time.After(time.Second):
				conn.Close()
				wait()
			}
			return threads.Interrupted
		}
	}
}
