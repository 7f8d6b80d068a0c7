package scene

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Buttons is a set of handheld buttons.
type Buttons uint8

const (
	ButtonLeft Buttons = 1 << iota
	ButtonRight
	ButtonUp
	ButtonDown
	ButtonB
	ButtonA
)

var buttonNames = []struct {
	name string
	b    Buttons
}{
	{"left", ButtonLeft},
	{"right", ButtonRight},
	{"up", ButtonUp},
	{"down", ButtonDown},
	{"b", ButtonB},
	{"a", ButtonA},
}

// ParseButton maps a button name to its bit.
func ParseButton(name string) (Buttons, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, bn := range buttonNames {
		if bn.name == n {
			return bn.b, nil
		}
	}
	return 0, fmt.Errorf("scene: unknown button %q", name)
}

func (b Buttons) String() string {
	var parts []string
	for _, bn := range buttonNames {
		if b&bn.b != 0 {
			parts = append(parts, bn.name)
		}
	}
	return strings.Join(parts, "+")
}

// UnmarshalJSON accepts a list of button names.
func (b *Buttons) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*b = 0
	for _, n := range names {
		bit, err := ParseButton(n)
		if err != nil {
			return err
		}
		*b |= bit
	}
	return nil
}

// MarshalJSON writes the set as a list of names.
func (b Buttons) MarshalJSON() ([]byte, error) {
	names := []string{}
	for _, bn := range buttonNames {
		if b&bn.b != 0 {
			names = append(names, bn.name)
		}
	}
	return json.Marshal(names)
}

// InputEvent is what the input devices report on one frame.
type InputEvent struct {
	Frame    int     `json:"frame"`
	Pressed  Buttons `json:"press,omitempty"`
	Released Buttons `json:"release,omitempty"`
	Crank    float64 `json:"crank,omitempty"` // degrees turned since the last frame
}

// Script replays input events by frame number.
type Script struct {
	events map[int]InputEvent
}

// NewScript indexes events by frame. Events for the same frame are merged.
func NewScript(events []InputEvent) *Script {
	s := &Script{events: make(map[int]InputEvent, len(events))}
	for _, e := range events {
		cur := s.events[e.Frame]
		cur.Frame = e.Frame
		cur.Pressed |= e.Pressed
		cur.Released |= e.Released
		cur.Crank += e.Crank
		s.events[e.Frame] = cur
	}
	return s
}

// At returns the input for frame. Frames without events report nothing.
func (s *Script) At(frame int) InputEvent {
	if s == nil {
		return InputEvent{Frame: frame}
	}
	e, ok := s.events[frame]
	if !ok {
		return InputEvent{Frame: frame}
	}
	return e
}

// Held tracks which buttons are down across frames.
type Held Buttons

// Apply releases and then presses the event's buttons.
func (h Held) Apply(e InputEvent) Held {
	return Held((Buttons(h) &^ e.Released) | e.Pressed)
}

// Has reports whether b is held.
func (h Held) Has(b Buttons) bool { return Buttons(h)&b != 0 }
