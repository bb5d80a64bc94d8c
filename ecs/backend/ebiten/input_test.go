package ebiten_test

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/tickscene/ecs/action"
	backend "github.com/plus3/tickscene/ecs/backend/ebiten"
	"github.com/stretchr/testify/assert"
)

func TestCodeEncoding(t *testing.T) {
	tests := []struct {
		name    string
		code    action.Code
		key     ebiten.Key
		button  ebiten.MouseButton
		isMouse bool
	}{
		{"letter", backend.Key(ebiten.KeyW), ebiten.KeyW, 0, false},
		{"space", backend.Key(ebiten.KeySpace), ebiten.KeySpace, 0, false},
		{"first key", backend.Key(ebiten.KeyA), ebiten.KeyA, 0, false},
		{"left button", backend.Mouse(ebiten.MouseButtonLeft), 0, ebiten.MouseButtonLeft, true},
		{"right button", backend.Mouse(ebiten.MouseButtonRight), 0, ebiten.MouseButtonRight, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, button, isMouse := backend.Decode(tt.code)
			assert.Equal(t, tt.isMouse, isMouse)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.button, button)
		})
	}
}

func TestCodesDoNotCollide(t *testing.T) {
	seen := make(map[action.Code]string)
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		seen[backend.Key(k)] = k.String()
	}
	for b := ebiten.MouseButton(0); b <= ebiten.MouseButtonMax; b++ {
		code := backend.Mouse(b)
		_, clash := seen[code]
		assert.False(t, clash, "mouse button %d collides with a key", b)
	}
}

func TestKeys(t *testing.T) {
	codes := backend.Keys(ebiten.KeyW, ebiten.KeyArrowUp)
	assert.Equal(t, []action.Code{backend.Key(ebiten.KeyW), backend.Key(ebiten.KeyArrowUp)}, codes)
}
