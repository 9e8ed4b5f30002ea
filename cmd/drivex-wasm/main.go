//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"syscall/js"
	"time"

	"drivex/internal/api"
	"drivex/internal/config"
	"drivex/internal/engine"
	"drivex/internal/logger"
)

var (
	registerOnce sync.Once
	sessionMu    sync.Mutex
	session      *engine.Session
	onSnapshot   js.Value
	wake         = make(chan struct{}, 1)
)

func main() {
	logger.Init()
	settings := config.Default()
	session = engine.NewSession(settings.Config, settings.World)
	registerCallbacks()
	go drive()
	// Prevent the program from exiting.
	select {}
}

func registerCallbacks() {
	registerOnce.Do(func() {
		js.Global().Set("drivexRegisterSnapshotHandler", js.FuncOf(registerSnapshotHandler))
		js.Global().Set("drivexCommand", js.FuncOf(command))
		js.Global().Set("drivexSnapshot", js.FuncOf(currentSnapshot))
	})
}

func registerSnapshotHandler(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 || args[0].Type() != js.TypeFunction {
		fmt.Println("registerSnapshotHandler requires a function argument")
		return nil
	}
	onSnapshot = args[0]
	return nil
}

// command takes a JSON command string and returns a JSON message string:
// the new snapshot, or the reason the command was rejected.
func command(this js.Value, args []js.Value) interface{} {
	if len(args) == 0 {
		return encode(api.NewErrorMessage(errors.New("drivexCommand requires a JSON command string")))
	}
	var cmd api.Command
	if err := json.Unmarshal([]byte(args[0].String()), &cmd); err != nil {
		return encode(api.NewErrorMessage(fmt.Errorf("invalid command: %w", err)))
	}

	sessionMu.Lock()
	err := api.Apply(session, cmd)
	msg := api.NewSnapshotMessage(session.Snapshot(), session.World())
	sessionMu.Unlock()
	if err != nil {
		return encode(api.NewErrorMessage(err))
	}

	select {
	case wake <- struct{}{}:
	default:
	}
	return encode(msg)
}

func currentSnapshot(this js.Value, args []js.Value) interface{} {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	return encode(api.NewSnapshotMessage(session.Snapshot(), session.World()))
}

// drive advances the active task and pushes a snapshot after every quantum.
func drive() {
	for range wake {
		for {
			sessionMu.Lock()
			if !session.Active() {
				sessionMu.Unlock()
				break
			}
			session.Advance()
			status := session.Status()
			msg := api.NewSnapshotMessage(session.Snapshot(), session.World())
			delay := session.Config().StepDelay()
			sessionMu.Unlock()

			publish(msg)
			if status == engine.StatusRunning {
				time.Sleep(delay)
			} else {
				// Yield so the page can repaint between training batches.
				time.Sleep(0)
			}
		}
	}
}

func publish(msg api.Message) {
	if onSnapshot.IsUndefined() || onSnapshot.IsNull() {
		return
	}
	onSnapshot.Invoke(encode(msg))
}

func encode(msg api.Message) string {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Sprintf(`{"type":"error","error":%q}`, err.Error())
	}
	return string(data)
}
