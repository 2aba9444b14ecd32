package timex

import (
	"testing"
	"time"
)

func TestMonoMsAdvances(t *testing.T) {
	a := MonoMs()
	time.Sleep(5 * time.Millisecond)
	if b := MonoMs(); b < a+4 {
		t.Fatalf("MonoMs did not advance: %d -> %d", a, b)
	}
}

func TestMillis(t *testing.T) {
	if Millis(uint32(2000)) != 2*time.Second {
		t.Fatal("Millis(2000)")
	}
	if Millis(int64(0)) != 0 {
		t.Fatal("Millis(0)")
	}
}
