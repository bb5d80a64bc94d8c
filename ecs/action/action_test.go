package action_test

import (
	"errors"
	"testing"

	"github.com/plus3/tickscene/ecs/action"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	keySpace action.Code = iota + 1
	keyW
	keyUp
	mouseLeft
)

// fakeInput is a polled input backend that records every poll.
type fakeInput struct {
	down   map[action.Code]bool
	polled []action.Code
}

func newFakeInput(down ...action.Code) *fakeInput {
	in := &fakeInput{down: make(map[action.Code]bool)}
	for _, c := range down {
		in.down[c] = true
	}
	return in
}

func (in *fakeInput) pressed(code action.Code) bool {
	in.polled = append(in.polled, code)
	return in.down[code]
}

func TestBindingShortCircuit(t *testing.T) {
	in := newFakeInput(keySpace, mouseLeft)
	b := action.Binding{Name: "shoot", Predicate: in.pressed, Codes: []action.Code{keySpace, mouseLeft}}

	assert.True(t, b.Active())
	assert.Equal(t, []action.Code{keySpace}, in.polled, "stops at the first true code")

	in.polled = nil
	delete(in.down, keySpace)
	assert.True(t, b.Active())
	assert.Equal(t, []action.Code{keySpace, mouseLeft}, in.polled)

	in.polled = nil
	delete(in.down, mouseLeft)
	assert.False(t, b.Active())
}

func TestMapEvaluate(t *testing.T) {
	in := newFakeInput(keyW)
	m, err := action.NewMap(
		action.Binding{Name: "up", Predicate: in.pressed, Codes: []action.Code{keyW, keyUp}},
		action.Binding{Name: "shoot", Predicate: in.pressed, Codes: []action.Code{keySpace, mouseLeft}},
	)
	require.NoError(t, err)

	snap := m.Evaluate()
	assert.True(t, snap.Active("up"))
	assert.False(t, snap.Active("shoot"))
	assert.False(t, snap.Active("missing"))
	assert.Equal(t, []string{"shoot", "up"}, snap.Names())
	assert.Equal(t, 2, snap.Len())

	v, ok := snap.Lookup("shoot")
	assert.False(t, v)
	assert.True(t, ok)
	_, ok = snap.Lookup("missing")
	assert.False(t, ok)

	t.Run("snapshots are immutable", func(t *testing.T) {
		in.down[keySpace] = true
		assert.False(t, snap.Active("shoot"))
		assert.True(t, m.Evaluate().Active("shoot"))
	})
}

func TestMapBind(t *testing.T) {
	in := newFakeInput(keyUp)
	m, err := action.NewMap()
	require.NoError(t, err)

	require.NoError(t, m.Bind("jump", in.pressed, keySpace))
	require.NoError(t, m.Bind("up", in.pressed, keyW))
	require.NoError(t, m.Bind("jump", in.pressed, keyUp))

	bindings := m.Bindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, "jump", bindings[0].Name, "rebinding keeps the position")
	assert.Equal(t, []action.Code{keyUp}, bindings[0].Codes)
	assert.True(t, m.Evaluate().Active("jump"))

	err = m.Bind("bad", nil, keyW)
	assert.True(t, errors.Is(err, action.ErrInvalidBinding))
	err = m.Bind("bad", in.pressed)
	assert.True(t, errors.Is(err, action.ErrInvalidBinding))
	assert.Len(t, m.Bindings(), 2)
}

func TestNewMapReportsInvalid(t *testing.T) {
	m, err := action.NewMap(
		action.Binding{Name: "ok", Predicate: func(action.Code) bool { return true }, Codes: []action.Code{keyW}},
		action.Binding{Name: "empty", Predicate: func(action.Code) bool { return true }},
		action.Binding{Name: "nopred", Codes: []action.Code{keyUp}},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, action.ErrInvalidBinding))
	assert.Contains(t, err.Error(), `"empty"`)
	assert.Contains(t, err.Error(), `"nopred"`)

	require.NotNil(t, m)
	bindings := m.Bindings()
	require.Len(t, bindings, 1)
	assert.Equal(t, "ok", bindings[0].Name)
}

func TestZeroSnapshot(t *testing.T) {
	var snap action.Snapshot
	assert.False(t, snap.Active("anything"))
	assert.Empty(t, snap.Names())
	assert.Equal(t, 0, snap.Len())
}
