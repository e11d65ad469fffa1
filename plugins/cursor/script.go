package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// cliclickArg builds a cliclick argument such as "dd:120,40".
func cliclickArg(verb string, params json.RawMessage) (string, error) {
	var p Point
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return "", fmt.Errorf("parse params: %w", err)
		}
	}
	if p.X == nil || p.Y == nil {
		return "", errNoPosition
	}
	return fmt.Sprintf("%s:%d,%d", verb, *p.X, *p.Y), nil
}

// keystrokeScript builds the AppleScript that types key with modifiers held.
// Unknown modifiers are ignored.
func keystrokeScript(key string, modifiers []string) string {
	key = strings.ReplaceAll(key, `"`, `\"`)

	var mods []string
	for _, m := range modifiers {
		if am, ok := modifierMap[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}

	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, strings.Join(mods, ", "))
}
