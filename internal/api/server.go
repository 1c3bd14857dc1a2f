// Package api is the HTTP surface of the importer: the message transport,
// the change feed, batch uploads, outcome listings and workflow control.
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/models"
	"github.com/yourorg/rips-import/internal/runstate"
	"github.com/yourorg/rips-import/internal/transport"
	"github.com/yourorg/rips-import/internal/types"
)

// Importer begins a batch in the controlled browser.
type Importer interface {
	Begin(ctx context.Context, batch types.Batch, settings types.Settings) (runID string, err error)
}

// OutcomeStore reads the audit trail.
type OutcomeStore interface {
	ListOutcomes(f models.OutcomeFilter) ([]models.ImportOutcome, error)
	Runs(limit int) ([]models.RunSummary, error)
}

// Deps wires the server. Only Store and Coordinator are required; a nil
// Importer, Outcomes or Temporal disables the routes that need it.
type Deps struct {
	Store       *runstate.Store
	Coordinator *transport.Coordinator
	Importer    Importer
	Outcomes    OutcomeStore
	Temporal    client.Client
	TaskQueue   string
	Log         *zap.Logger
}

type Server struct {
	d      Deps
	hub    *Hub
	cancel []func()
}

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	s := &Server{d: d}
	s.hub = NewHub(s.handleFrame, d.Log)
	s.cancel = append(s.cancel,
		d.Store.Subscribe(func(c runstate.Change) {
			s.hub.Broadcast(Event{Type: "change", Key: string(c.Key), Old: c.Old, New: c.New})
		}),
		d.Coordinator.OnNotice(func(n transport.Notice) {
			s.hub.Broadcast(Event{Type: "notice", Message: n.Message, Action: n.Action})
		}),
	)
	return s
}

// Run serves the change feed until ctx ends.
func (s *Server) Run(ctx context.Context) { s.hub.Run(ctx) }

// Close detaches the server from the store and the coordinator.
func (s *Server) Close() {
	for _, c := range s.cancel {
		c()
	}
}

// Mount registers every route under /api/v1.
func (s *Server) Mount(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/messages", s.PostMessage)
		v1.GET("/events", s.hub.Serve)
		v1.GET("/state", s.GetState)
		v1.POST("/imports", s.PostImport)
		v1.GET("/outcomes", s.GetOutcomes)
		v1.GET("/runs", s.GetRuns)

		if s.d.Temporal != nil {
			v1.POST("/workflows/import", s.StartImportWorkflow)
			v1.GET("/workflows/:id/status", s.GetWorkflowStatus)
		}
	}
}

// handleFrame answers a transport message sent over the websocket.
func (s *Server) handleFrame(ctx context.Context, frame []byte) ([]byte, error) {
	var m transport.Message
	if err := json.Unmarshal(frame, &m); err != nil {
		return nil, err
	}
	body, err := s.d.Coordinator.Handle(ctx, m)
	if err != nil || body == nil {
		return nil, err
	}
	return json.Marshal(gin.H{"action": m.Action, "response": body})
}
