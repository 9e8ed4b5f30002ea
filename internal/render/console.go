// Package render draws sessions as coloured text for terminals.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"

	"drivex/internal/engine"
)

// Console renders frames. With colours off the output is plain ASCII,
// which is what tests and log files want.
type Console struct {
	au aurora.Aurora
}

func NewConsole(colors bool) *Console {
	return &Console{au: aurora.NewAurora(colors)}
}

// Frame draws the map with the agent, adversaries and hazards at the
// snapshot's tick, followed by a one-line status.
func (c *Console) Frame(w io.Writer, world *engine.GridWorld, snap engine.Snapshot) error {
	adversaries := make(map[engine.Position]bool, len(snap.Adversaries))
	for _, p := range snap.Adversaries {
		adversaries[p] = true
	}

	var b strings.Builder
	for r := 0; r < world.Size(); r++ {
		for col := 0; col < world.Size(); col++ {
			p := engine.Position{Row: r, Col: col}
			b.WriteString(c.cell(world, p, snap, adversaries))
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	b.WriteString(c.statusLine(snap))
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func (c *Console) cell(world *engine.GridWorld, p engine.Position, snap engine.Snapshot, adversaries map[engine.Position]bool) string {
	switch {
	case p == snap.Agent:
		return c.au.Green("A").String()
	case adversaries[p]:
		return c.au.Red("P").String()
	case p == world.Goal():
		return c.au.Yellow("G").String()
	case world.IsWall(p):
		return c.au.Blue("#").String()
	}
	if h, ok := world.HazardAt(p); ok {
		if h.ActiveOn(snap.Tick) {
			return c.au.Magenta("!").String()
		}
		return c.au.Magenta("-").String()
	}
	return "."
}

func (c *Console) statusLine(snap engine.Snapshot) string {
	line := fmt.Sprintf("[%s] tick=%d eps=%.3f states=%d episodes=%d/%d successes=%d",
		snap.Status, snap.Tick, snap.Epsilon, snap.TableSize, snap.Episodes, snap.EpisodeCap, snap.Successes)
	if snap.Confidence != nil {
		line += fmt.Sprintf(" confidence=%.2f", *snap.Confidence)
	}
	if snap.Outcome != engine.OutcomeNone {
		line += " outcome=" + string(snap.Outcome)
	}
	switch snap.Status {
	case engine.StatusSuccess:
		return c.au.Green(line).String()
	case engine.StatusFailed:
		return c.au.Red(line).String()
	}
	return c.au.Cyan(line).String()
}

// ValueMap prints the best learned value per cell. Walls show as #, cells
// the agent never visited as a dot.
func (c *Console) ValueMap(w io.Writer, world *engine.GridWorld, table *engine.QTable) error {
	values := table.StateValues()
	var b strings.Builder
	b.WriteString("value map:\n")
	for r := 0; r < world.Size(); r++ {
		for col := 0; col < world.Size(); col++ {
			p := engine.Position{Row: r, Col: col}
			if world.IsWall(p) {
				b.WriteString(c.au.Blue(fmt.Sprintf("%8s", "#")).String())
				continue
			}
			v, ok := values[p]
			switch {
			case !ok:
				b.WriteString(fmt.Sprintf("%8s", "."))
			case v < 0:
				b.WriteString(c.au.Red(fmt.Sprintf("%8.2f", v)).String())
			default:
				b.WriteString(c.au.Green(fmt.Sprintf("%8.2f", v)).String())
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Log prints the status log, newest first.
func (c *Console) Log(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s %s\n", c.au.Gray(12, ">"), line); err != nil {
			return err
		}
	}
	return nil
}
