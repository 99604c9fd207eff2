package action

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRoundTripsEveryName(t *testing.T) {
	for _, id := range All() {
		got, err := Parse(id.String())
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", id, err)
		}
		if got != id {
			t.Errorf("Parse(%q) = %v, want %v", id, got, id)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, name := range []string{"", "none", "TAIL-LIGHTS-ON", "warp-drive"} {
		if _, err := Parse(name); !errors.Is(err, ErrUnknown) {
			t.Errorf("Parse(%q) error = %v, want ErrUnknown", name, err)
		}
	}
}

func TestValid(t *testing.T) {
	if None.Valid() {
		t.Error("None.Valid() = true")
	}
	if !ThrustRight.Valid() {
		t.Error("ThrustRight.Valid() = false")
	}
	if ID(200).Valid() {
		t.Error("ID(200).Valid() = true")
	}
	if got := ID(200).String(); got != "action(200)" {
		t.Errorf("String() = %q", got)
	}
}

func TestJSONUsesNames(t *testing.T) {
	data, err := json.Marshal(map[string]ID{"a": PlayFlyMore})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != `{"a":"play-fly-more"}` {
		t.Errorf("Marshal = %s", data)
	}

	var id ID
	if err := json.Unmarshal([]byte(`"turn-left"`), &id); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if id != TurnLeft {
		t.Errorf("Unmarshal = %v, want turn-left", id)
	}
}
