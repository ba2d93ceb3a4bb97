package cli

import (
	"flag"
	"testing"
	"time"
)

func TestOptionalUnsetReportsNotSet(t *testing.T) {
	d := NewDuration()
	if _, ok := d.Value(); ok {
		t.Fatalf("expected unset duration")
	}
	if d.String() != "" {
		t.Fatalf("expected empty string for unset flag, got %q", d.String())
	}
}

func TestOptionalDurationSet(t *testing.T) {
	d := NewDuration()
	if err := d.Set("90s"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, ok := d.Value()
	if !ok || v != 90*time.Second {
		t.Fatalf("unexpected value: %v set=%v", v, ok)
	}
	if d.String() != "1m30s" {
		t.Fatalf("unexpected string: %q", d.String())
	}
}

func TestOptionalIntRejectsGarbage(t *testing.T) {
	n := NewInt()
	if err := n.Set("five"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, ok := n.Value(); ok {
		t.Fatalf("failed parse must not mark the flag as set")
	}
}

func TestBoolFlagWithoutArgument(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	b := NewBool()
	fs.Var(b, "no-ui", "")
	if err := fs.Parse([]string{"-no-ui"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	v, ok := b.Value()
	if !ok || !v {
		t.Fatalf("expected -no-ui to set true, got %v set=%v", v, ok)
	}
}

func TestOptionalStringSet(t *testing.T) {
	s := NewString()
	if err := s.Set(":9100"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, ok := s.Value()
	if !ok || v != ":9100" {
		t.Fatalf("unexpected value: %q set=%v", v, ok)
	}
}
