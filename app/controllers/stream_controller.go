package controllers

import (
	"net/http"

	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/response"
	"github.com/adegaexpress/adega/pkg/sse"
	"github.com/adegaexpress/adega/pkg/ws"
)

// StreamController attaches dashboards to the broker. These handlers hold
// the connection open, so they are plain http.HandlerFuncs.
type StreamController struct {
	broker *sse.Broker
}

func NewStreamController(broker *sse.Broker) *StreamController {
	return &StreamController{broker: broker}
}

// Events serves text/event-stream until the client disconnects.
func (sc *StreamController) Events(w http.ResponseWriter, r *http.Request) {
	stream, err := sse.New(w)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	defer stream.Close()

	if err := sc.broker.Register(stream); err != nil {
		logger.WithCtx(r.Context()).Debug("sse: client gone before connected", "error", err)
		return
	}
	defer sc.broker.Unregister(stream)

	logger.WithCtx(r.Context()).Debug("sse: client connected", "channels", sc.broker.Len())
	stream.Serve(r.Context())
}

// Socket is the WebSocket twin of Events for clients that prefer it.
func (sc *StreamController) Socket(w http.ResponseWriter, r *http.Request) {
	client, err := ws.Upgrade(w, r)
	if err != nil {
		return
	}
	defer client.Close()

	if err := sc.broker.Register(client); err != nil {
		return
	}
	defer sc.broker.Unregister(client)

	client.Run(r.Context())
}
