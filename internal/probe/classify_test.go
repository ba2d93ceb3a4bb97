package probe

import "testing"

func TestClassifyAllDown(t *testing.T) {
	records := []Record{
		{State: "down", Color: "biz-internet"},
		{State: "down", Color: "biz-internet"},
	}
	if got := Classify(records, "biz-internet"); got != OutcomeDown {
		t.Fatalf("expected DOWN, got %s", got)
	}
}

func TestClassifyAllUp(t *testing.T) {
	records := []Record{
		{State: "up", Color: "mpls"},
		{State: "up", Color: "mpls"},
	}
	if got := Classify(records, "mpls"); got != OutcomeUp {
		t.Fatalf("expected UP, got %s", got)
	}
}

func TestClassifyMixed(t *testing.T) {
	records := []Record{
		{State: "up", Color: "biz-internet"},
		{State: "down", Color: "biz-internet"},
	}
	if got := Classify(records, "biz-internet"); got != OutcomePartial {
		t.Fatalf("expected PARTIAL, got %s", got)
	}
}

func TestClassifyEmpty(t *testing.T) {
	if got := Classify(nil, "mpls"); got != OutcomeUnknown {
		t.Fatalf("expected UNKNOWN for empty records, got %s", got)
	}
}

func TestClassifyIgnoresOtherColors(t *testing.T) {
	records := []Record{
		{State: "up", Color: "mpls"},
		{State: "down", Color: "biz-internet"},
		{State: "down", Color: "biz-internet"},
	}
	if got := Classify(records, "biz-internet"); got != OutcomeDown {
		t.Fatalf("expected DOWN when only other colors are up, got %s", got)
	}
	if got := Classify(records, "lte"); got != OutcomeUnknown {
		t.Fatalf("expected UNKNOWN for an absent color, got %s", got)
	}
}

func TestClassifyUnrecognizedState(t *testing.T) {
	records := []Record{
		{State: "flapping", Color: "mpls"},
		{State: "down", Color: "mpls"},
	}
	if got := Classify(records, "mpls"); got != OutcomePartial {
		t.Fatalf("expected PARTIAL for unrecognized state, got %s", got)
	}
}
