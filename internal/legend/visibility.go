package legend

import "sync"

// State is the legend visibility.
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// Visibility is the two-state legend machine. It starts Hidden.
// Toggle flips the state; MapClick always lands on Hidden.
type Visibility struct {
	mu    sync.Mutex
	state State
}

// State returns the current state.
func (v *Visibility) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Toggle handles a toggle-button click.
func (v *Visibility) Toggle() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == Hidden {
		v.state = Visible
	} else {
		v.state = Hidden
	}
	return v.state
}

// MapClick handles a click anywhere on the map.
func (v *Visibility) MapClick() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = Hidden
	return v.state
}

// show moves Hidden to Visible, as a toggle click from Hidden does.
func (v *Visibility) show() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = Visible
	return v.state
}
