// Package main is the cursor plugin for macOS.
// It moves and clicks the mouse with cliclick and sends zoom and keyboard
// shortcuts through AppleScript.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Request is the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response is the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Point is the cursor position in screen pixels.
type Point struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// KeystrokeConfig is the binding config of the keystroke action.
type KeystrokeConfig struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
}

var errNoPosition = errors.New("x and y are required")

// actionHandler runs one action.
type actionHandler func(req Request) error

var actionHandlers = map[string]actionHandler{
	"move":       pointer("m"),
	"mouse-down": pointer("dd"),
	"mouse-up":   pointer("du"),
	"click":      pointer("c"),
	"zoom-in":    shortcut(KeystrokeConfig{Key: "+", Modifiers: []string{"command"}}),
	"zoom-out":   shortcut(KeystrokeConfig{Key: "-", Modifiers: []string{"command"}}),
	"keystroke":  keystroke,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("decode request: %w", err))
		return
	}
	writeResponse(handle(req))
}

func handle(req Request) error {
	handler, ok := actionHandlers[req.Action]
	if !ok {
		return fmt.Errorf("unknown action: %s", req.Action)
	}
	if err := handler(req); err != nil {
		return fmt.Errorf("action %s failed: %w", req.Action, err)
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// pointer returns a handler running a cliclick command at the request position.
func pointer(verb string) actionHandler {
	return func(req Request) error {
		arg, err := cliclickArg(verb, req.Params)
		if err != nil {
			return err
		}
		return run("cliclick", arg)
	}
}

// shortcut returns a handler sending a fixed keystroke, unless the binding
// config overrides it.
func shortcut(def KeystrokeConfig) actionHandler {
	return func(req Request) error {
		cfg := def
		if len(req.Config) > 0 {
			var override KeystrokeConfig
			if err := json.Unmarshal(req.Config, &override); err == nil && override.Key != "" {
				cfg = override
			}
		}
		return run("osascript", "-e", keystrokeScript(cfg.Key, cfg.Modifiers))
	}
}

func keystroke(req Request) error {
	var cfg KeystrokeConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	if cfg.Key == "" {
		return errors.New("key is required")
	}
	return run("osascript", "-e", keystrokeScript(cfg.Key, cfg.Modifiers))
}

func run(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, string(out))
	}
	return nil
}
