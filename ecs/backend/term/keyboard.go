// Package term runs a Scheduler in a terminal through tcell. Screens receive
// a *Canvas as their draw target and actions poll a Keyboard fed from tcell
// key events.
package term

import (
	"slices"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/kamstrup/intmap"
	"github.com/plus3/tickscene/ecs/action"
)

// runeBase separates rune codes from named tcell keys.
const runeBase action.Code = 1 << 21

// Key encodes a named tcell key (arrows, Enter, Escape, ...) as an action code.
func Key(k tcell.Key) action.Code {
	return action.Code(k)
}

// Rune encodes a printable key. Letters are case-folded so 'w' and 'W'
// share a code.
func Rune(r rune) action.Code {
	return runeBase + action.Code(unicode.ToLower(r))
}

// Runes encodes every rune of s.
func Runes(s string) []action.Code {
	var codes []action.Code
	for _, r := range s {
		codes = append(codes, Rune(r))
	}
	return codes
}

// codeOf maps a key event to its action code.
func codeOf(ev *tcell.EventKey) action.Code {
	if ev.Key() == tcell.KeyRune {
		return Rune(ev.Rune())
	}
	return Key(ev.Key())
}

// Keyboard tracks which keys are considered down. Terminals only report key
// presses, so a key stays down for a fixed number of ticks after its last
// press or autorepeat. A key that ages out and is reported again on the
// next tick is treated as an autorepeat, not a fresh press.
type Keyboard struct {
	hold     int
	down     *intmap.Map[action.Code, int]
	pressed  *intmap.Set[action.Code]
	released *intmap.Set[action.Code]
}

// NewKeyboard creates a keyboard that holds keys for hold ticks.
func NewKeyboard(hold int) *Keyboard {
	if hold < 1 {
		hold = 1
	}
	return &Keyboard{
		hold:     hold,
		down:     intmap.New[action.Code, int](16),
		pressed:  intmap.NewSet[action.Code](16),
		released: intmap.NewSet[action.Code](16),
	}
}

// Feed records a key event.
func (k *Keyboard) Feed(ev *tcell.EventKey) {
	code := codeOf(ev)
	if !k.down.Has(code) && !k.released.Has(code) {
		k.pressed.Add(code)
	}
	k.down.Put(code, k.hold)
}

// Held reports whether the key is down.
func (k *Keyboard) Held(code action.Code) bool {
	return k.down.Has(code)
}

// JustPressed reports whether the key went down since the last Advance.
func (k *Keyboard) JustPressed(code action.Code) bool {
	return k.pressed.Has(code)
}

// Advance ages every held key by one tick and forgets fresh presses.
func (k *Keyboard) Advance() {
	if k.released.Len() > 0 {
		k.released = intmap.NewSet[action.Code](16)
	}
	for _, code := range slices.Collect(k.down.Keys()) {
		left, _ := k.down.Get(code)
		if left <= 1 {
			k.down.Del(code)
			k.released.Add(code)
			continue
		}
		k.down.Put(code, left-1)
	}
	if k.pressed.Len() > 0 {
		k.pressed = intmap.NewSet[action.Code](16)
	}
}

// Reset releases every key.
func (k *Keyboard) Reset() {
	k.down.Clear()
	k.pressed = intmap.NewSet[action.Code](16)
	k.released = intmap.NewSet[action.Code](16)
}
