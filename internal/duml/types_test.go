package duml

import (
	"encoding/json"
	"testing"
)

func TestFlightMode_String(t *testing.T) {
	cases := map[FlightMode]string{
		ModeSport:          "Sport",
		ModeNormal:         "Normal",
		ModeTripod:         "Tripod",
		ModeUnknown:        "Unknown",
		FlightMode(200):    "Unknown",
	}
	for mode, want := range cases {
		if got := mode.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", mode, got, want)
		}
	}
}

func TestFlightMode_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(ModeTripod)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `"Tripod"` {
		t.Fatalf("json = %s, want \"Tripod\"", b)
	}
}
