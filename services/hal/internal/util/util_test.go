package util

import (
	"testing"
	"time"
)

func TestDecodeJSON(t *testing.T) {
	type P struct {
		A int    `json:"a"`
		B string `json:"b"`
	}

	for name, in := range map[string]any{
		"bytes":  []byte(`{"a":1,"b":"x"}`),
		"string": `{"a":1,"b":"x"}`,
		"map":    map[string]any{"a": 1, "b": "x"},
		"typed":  P{A: 1, B: "x"},
	} {
		var p P
		if err := DecodeJSON(in, &p); err != nil {
			t.Fatalf("%s: decode failed: %v", name, err)
		}
		if p.A != 1 || p.B != "x" {
			t.Fatalf("%s: unexpected result: %+v", name, p)
		}
	}

	var p P
	if err := DecodeJSON(nil, &p); err != nil || p != (P{}) {
		t.Fatalf("nil params: %+v %v", p, err)
	}
}

func TestClampPeriod(t *testing.T) {
	cases := map[time.Duration]time.Duration{
		time.Millisecond: 200 * time.Millisecond,
		2 * time.Second:  2 * time.Second,
		48 * time.Hour:   time.Hour,
		-1 * time.Second: 200 * time.Millisecond,
	}
	for in, want := range cases {
		if got := ClampPeriod(in); got != want {
			t.Errorf("ClampPeriod(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestResetAndDrainTimer(t *testing.T) {
	tm := time.NewTimer(time.Hour)
	if !tm.Stop() {
		DrainTimer(tm)
	}
	ResetTimer(tm, 1*time.Millisecond)
	select {
	case <-tm.C:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timer did not fire after reset")
	}
}
