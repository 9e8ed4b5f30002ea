// Package api defines the JSON messages exchanged with a presentation layer.
package api

import (
	"fmt"

	"drivex/internal/engine"
)

const (
	CommandTrain = "train"
	CommandEval  = "eval"
	CommandStop  = "stop"
	CommandReset = "reset"
)

const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
)

// Command is sent by a client to drive the session.
type Command struct {
	Type string `json:"type" jsonschema:"required,enum=train,enum=eval,enum=stop,enum=reset"`
	Raw  bool   `json:"raw,omitempty" jsonschema:"description=Evaluate with uniformly random actions instead of the learned policy"`
}

func (c Command) Validate() error {
	switch c.Type {
	case CommandTrain, CommandEval, CommandStop, CommandReset:
		return nil
	}
	return fmt.Errorf("unknown command %q", c.Type)
}

// Apply runs cmd against the session. The caller must own the session.
func Apply(session *engine.Session, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	switch cmd.Type {
	case CommandTrain:
		return session.StartTraining()
	case CommandEval:
		return session.StartEvaluation(cmd.Raw)
	case CommandStop:
		session.Stop()
	case CommandReset:
		session.Reset()
	}
	return nil
}

// Message is pushed from the server to every client.
type Message struct {
	Type     string       `json:"type" jsonschema:"required,enum=snapshot,enum=error"`
	Snapshot *SnapshotDTO `json:"snapshot,omitempty"`
	Error    string       `json:"error,omitempty"`
}

type PositionDTO struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type HazardDTO struct {
	Pos      PositionDTO `json:"pos"`
	ActiveOn []int       `json:"activeOn"`
	Active   bool        `json:"active"`
}

type MapDTO struct {
	Size    int           `json:"size"`
	Goal    PositionDTO   `json:"goal"`
	Walls   []PositionDTO `json:"walls"`
	Hazards []HazardDTO   `json:"hazards"`
}

type SnapshotDTO struct {
	SessionID   string        `json:"sessionId"`
	Status      string        `json:"status" jsonschema:"enum=IDLE,enum=TRAINING,enum=READY,enum=RUNNING,enum=SUCCESS,enum=FAILED"`
	Agent       PositionDTO   `json:"agent"`
	Adversaries []PositionDTO `json:"adversaries"`
	Tick        int           `json:"tick"`
	TableSize   int           `json:"tableSize"`
	Epsilon     float64       `json:"epsilon"`
	Episodes    int           `json:"episodes"`
	EpisodeCap  int           `json:"episodeCap"`
	Progress    float64       `json:"progress"`
	Successes   int           `json:"successes"`
	Confidence  *float64      `json:"confidence,omitempty"`
	Raw         bool          `json:"raw"`
	Outcome     string        `json:"outcome,omitempty"`
	Log         []string      `json:"log"`
	Map         MapDTO        `json:"map"`
}

func NewSnapshotMessage(snap engine.Snapshot, world *engine.GridWorld) Message {
	dto := NewSnapshotDTO(snap, world)
	return Message{Type: MessageSnapshot, Snapshot: &dto}
}

func NewErrorMessage(err error) Message {
	return Message{Type: MessageError, Error: err.Error()}
}

func NewSnapshotDTO(snap engine.Snapshot, world *engine.GridWorld) SnapshotDTO {
	adversaries := make([]PositionDTO, len(snap.Adversaries))
	for i, p := range snap.Adversaries {
		adversaries[i] = toDTO(p)
	}
	return SnapshotDTO{
		SessionID:   snap.SessionID,
		Status:      string(snap.Status),
		Agent:       toDTO(snap.Agent),
		Adversaries: adversaries,
		Tick:        snap.Tick,
		TableSize:   snap.TableSize,
		Epsilon:     snap.Epsilon,
		Episodes:    snap.Episodes,
		EpisodeCap:  snap.EpisodeCap,
		Progress:    snap.Progress,
		Successes:   snap.Successes,
		Confidence:  snap.Confidence,
		Raw:         snap.Raw,
		Outcome:     string(snap.Outcome),
		Log:         snap.Log,
		Map:         newMapDTO(world, snap.Tick),
	}
}

func newMapDTO(world *engine.GridWorld, tick int) MapDTO {
	walls := world.Walls()
	m := MapDTO{
		Size:  world.Size(),
		Goal:  toDTO(world.Goal()),
		Walls: make([]PositionDTO, len(walls)),
	}
	for i, w := range walls {
		m.Walls[i] = toDTO(w)
	}
	for _, h := range world.Hazards() {
		m.Hazards = append(m.Hazards, HazardDTO{
			Pos:      toDTO(h.Pos),
			ActiveOn: h.ActivePhases,
			Active:   h.ActiveOn(tick),
		})
	}
	return m
}

func toDTO(p engine.Position) PositionDTO {
	return PositionDTO{Row: p.Row, Col: p.Col}
}
