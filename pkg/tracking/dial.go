package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// DialLandmarks connects to a remote estimator at url and feeds every
// landmarks message into src until ctx is cancelled or the connection
// drops. It returns nil on cancellation.
func DialLandmarks(ctx context.Context, url string, src *LandmarkSource) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("%w: dial estimator: %v", ErrTrackingUnavailable, err)
	}
	defer ws.Close()

	stop := context.AfterFunc(ctx, func() {
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ws.Close()
	})
	defer stop()

	src.logger.Info("connected to landmark estimator", "url", url)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read landmarks: %w", err)
		}

		err = src.FeedMessage(data)
		switch {
		case err == nil, errors.Is(err, ErrSourceClosed):
		case errors.Is(err, ErrMalformedFrame):
			src.logger.Debug("dropping malformed estimator message", "error", err)
		default:
			return err
		}
	}
}
