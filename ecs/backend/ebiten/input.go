// Package ebiten runs a Scheduler inside an Ebiten game loop and exposes
// keyboard and mouse state as action predicates.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/plus3/tickscene/ecs/action"
)

// mouseBase separates mouse button codes from key codes.
const mouseBase action.Code = 1 << 16

// Key encodes a keyboard key as an action code.
func Key(k ebiten.Key) action.Code {
	return action.Code(k)
}

// Mouse encodes a mouse button as an action code.
func Mouse(b ebiten.MouseButton) action.Code {
	return mouseBase + action.Code(b)
}

// Keys encodes several keys at once.
func Keys(keys ...ebiten.Key) []action.Code {
	codes := make([]action.Code, len(keys))
	for i, k := range keys {
		codes[i] = Key(k)
	}
	return codes
}

// Decode splits a code back into a key or a mouse button.
func Decode(code action.Code) (key ebiten.Key, button ebiten.MouseButton, isMouse bool) {
	if code >= mouseBase {
		return 0, ebiten.MouseButton(code - mouseBase), true
	}
	return ebiten.Key(code), 0, false
}

// Held reports whether the key or button is down this tick.
func Held(code action.Code) bool {
	key, button, isMouse := Decode(code)
	if isMouse {
		return ebiten.IsMouseButtonPressed(button)
	}
	return ebiten.IsKeyPressed(key)
}

// JustPressed reports whether the key or button went down this tick.
func JustPressed(code action.Code) bool {
	key, button, isMouse := Decode(code)
	if isMouse {
		return inpututil.IsMouseButtonJustPressed(button)
	}
	return inpututil.IsKeyJustPressed(key)
}

// JustReleased reports whether the key or button went up this tick.
func JustReleased(code action.Code) bool {
	key, button, isMouse := Decode(code)
	if isMouse {
		return inpututil.IsMouseButtonJustReleased(button)
	}
	return inpututil.IsKeyJustReleased(key)
}
