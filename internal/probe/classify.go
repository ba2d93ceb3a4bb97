// Package probe classifies BFD session records into per-cycle outcomes.
package probe

// Outcome is the aggregate liveness verdict for one (device, color) pair in
// one poll cycle.
type Outcome string

const (
	// OutcomeNone marks an unfilled window slot.
	OutcomeNone    Outcome = ""
	OutcomeUp      Outcome = "UP"
	OutcomeDown    Outcome = "DOWN"
	OutcomePartial Outcome = "PARTIAL"
	OutcomeUnknown Outcome = "UNKNOWN"
)

// Record is a single BFD session state as reported by vManage.
type Record struct {
	State string `json:"state"`
	Color string `json:"local-color"`
}

// Classify reduces the records for one device to a single outcome for the
// requested color. An empty filtered set means the device reported nothing
// for this color, which is indistinguishable from a failed query and is
// therefore UNKNOWN rather than DOWN.
func Classify(records []Record, color string) Outcome {
	var total, down, up int
	for _, record := range records {
		if record.Color != color {
			continue
		}
		total++
		switch record.State {
		case "down":
			down++
		case "up":
			up++
		}
	}

	switch {
	case total == 0:
		return OutcomeUnknown
	case down == total:
		return OutcomeDown
	case up == total:
		return OutcomeUp
	default:
		return OutcomePartial
	}
}
