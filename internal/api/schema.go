package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
)

// Schemas reflects the JSON schema of both directions of the protocol,
// keyed by the file stem they are written under.
func Schemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{}

	command := reflector.Reflect(new(Command))
	command.Title = "drivex command"
	command.Description = "Client to server: start training, start an evaluation, stop it, or reset the core."

	message := reflector.Reflect(new(Message))
	message.Title = "drivex message"
	message.Description = "Server to client: a full session snapshot or a rejected command."

	return map[string]*jsonschema.Schema{
		"command": command,
		"message": message,
	}
}

// WriteSchemas writes <stem>.schema.json files into dir.
func WriteSchemas(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create schema directory: %w", err)
	}
	schemas := Schemas()
	var written []string
	for _, stem := range []string{"command", "message"} {
		schema := schemas[stem]
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return written, fmt.Errorf("marshal %s schema: %w", stem, err)
		}
		path := filepath.Join(dir, stem+".schema.json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return written, fmt.Errorf("write %s schema: %w", stem, err)
		}
		written = append(written, path)
	}
	return written, nil
}
