package server

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"drivex/internal/api"
	"drivex/internal/engine"
	"drivex/internal/logger"
)

type request struct {
	client *Client
	cmd    api.Command
}

// Hub owns the session. Every command and every scheduling quantum runs on
// the Run goroutine, so the session itself needs no locking.
type Hub struct {
	session    *engine.Session
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	commands   chan request
	done       chan struct{}
}

func NewHub(session *engine.Session) *Hub {
	return &Hub{
		session:    session,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan request),
		done:       make(chan struct{}),
	}
}

// Run processes commands and advances the active task until ctx ends.
// Training batches are scheduled back to back; evaluation steps are spaced
// by the configured step delay.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer func() {
		for c := range h.clients {
			h.drop(c)
		}
	}()

	h.entry().Info("hub started")
	var next <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			h.entry().Info("hub stopped")
			return
		case c := <-h.register:
			h.clients[c] = true
			h.entry().WithField("client_id", c.id).Info("client connected")
			h.sendTo(c, h.snapshot())
		case c := <-h.unregister:
			if h.clients[c] {
				h.entry().WithField("client_id", c.id).Info("client disconnected")
			}
			h.drop(c)
		case req := <-h.commands:
			before := h.session.Status()
			if err := api.Apply(h.session, req.cmd); err != nil {
				h.entry().WithFields(logrus.Fields{
					"client_id": req.client.id,
					"command":   req.cmd.Type,
				}).WithError(err).Warn("command rejected")
				h.sendTo(req.client, api.NewErrorMessage(err))
			} else {
				h.broadcast(h.snapshot())
			}
			// A pending step keeps its deadline unless the command changed the task.
			if next == nil || h.session.Status() != before {
				next = h.schedule()
			}
		case <-next:
			h.session.Advance()
			h.broadcast(h.snapshot())
			next = h.schedule()
		}
	}
}

func (h *Hub) schedule() <-chan time.Time {
	switch h.session.Status() {
	case engine.StatusTraining:
		return time.After(0)
	case engine.StatusRunning:
		return time.After(h.session.Config().StepDelay())
	}
	return nil
}

func (h *Hub) snapshot() api.Message {
	return api.NewSnapshotMessage(h.session.Snapshot(), h.session.World())
}

func (h *Hub) broadcast(msg api.Message) {
	for c := range h.clients {
		h.sendTo(c, msg)
	}
}

// sendTo never blocks the hub; a client that cannot keep up is dropped.
func (h *Hub) sendTo(c *Client, msg api.Message) {
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
		h.entry().WithField("client_id", c.id).Warn("send buffer full, dropping client")
		h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Join hands a connected client to the hub. It reports false once the hub
// has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) submit(c *Client, cmd api.Command) {
	select {
	case h.commands <- request{client: c, cmd: cmd}:
	case <-h.done:
	}
}

func (h *Hub) entry() *logrus.Entry {
	return logger.Log.WithFields(logrus.Fields{
		"component": "hub",
		"session":   h.session.ID(),
	})
}
