// Package config loads a session's training parameters and map layout from
// a YAML file. Anything the file leaves out keeps its default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"drivex/internal/engine"
)

type File struct {
	Training engine.Config `yaml:"training"`
	World    *WorldFile    `yaml:"world"`
}

type WorldFile struct {
	Size        int          `yaml:"size"`
	Start       [2]int       `yaml:"start"`
	Goal        [2]int       `yaml:"goal"`
	Walls       [][2]int     `yaml:"walls"`
	Hazards     []HazardFile `yaml:"hazards"`
	Adversaries [][2]int     `yaml:"adversaries"`
}

type HazardFile struct {
	Pos      [2]int `yaml:"pos"`
	ActiveOn []int  `yaml:"active_on"`
}

// Settings is a loaded, validated file.
type Settings struct {
	Config engine.Config
	World  *engine.GridWorld
}

func Default() Settings {
	return Settings{Config: engine.DefaultConfig(), World: engine.DefaultGridWorld()}
}

func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	settings, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

func Parse(data []byte) (Settings, error) {
	file := File{Training: engine.DefaultConfig()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if err := file.Training.Validate(); err != nil {
		return Settings{}, fmt.Errorf("training: %w", err)
	}

	settings := Settings{Config: file.Training, World: engine.DefaultGridWorld()}
	if file.World != nil {
		world, err := engine.NewGridWorld(file.World.Layout())
		if err != nil {
			return Settings{}, fmt.Errorf("world: %w", err)
		}
		settings.World = world
	}
	return settings, nil
}

func (w WorldFile) Layout() engine.Layout {
	layout := engine.Layout{
		Size:  w.Size,
		Start: toPosition(w.Start),
		Goal:  toPosition(w.Goal),
	}
	for _, p := range w.Walls {
		layout.Walls = append(layout.Walls, toPosition(p))
	}
	for _, h := range w.Hazards {
		layout.Hazards = append(layout.Hazards, engine.Hazard{Pos: toPosition(h.Pos), ActivePhases: h.ActiveOn})
	}
	for _, p := range w.Adversaries {
		layout.AdversaryStarts = append(layout.AdversaryStarts, toPosition(p))
	}
	return layout
}

func toPosition(p [2]int) engine.Position {
	return engine.Position{Row: p[0], Col: p[1]}
}
