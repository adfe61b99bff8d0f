package pulse

import "fmt"

// Velocity policy constants for topics without a baseline.
const (
	// EmergingVelocity is returned for a topic with current mentions but
	// no baseline: treated as "double baseline" signal strength.
	EmergingVelocity = 2.0

	// NeutralVelocity is returned for a topic with neither current
	// mentions nor a baseline.
	NeutralVelocity = 1.0
)

// ComputeVelocity returns the mention-acceleration ratio for a topic:
// current mentions divided by the historical baseline.
//
// A zero baseline is legitimate (a genuinely new topic) and maps to
// EmergingVelocity when there are current mentions, NeutralVelocity
// otherwise. A negative baseline is a data-quality defect, not an empty
// baseline, and fails with ErrInvalidInput rather than being coerced to
// zero. The ratio is returned uncapped; saturation happens during score
// normalization, not here.
func ComputeVelocity(currentMentions int, baselineMentions float64) (float64, error) {
	if currentMentions < 0 {
		return 0, fmt.Errorf("%w: negative current mentions (%d)", ErrInvalidInput, currentMentions)
	}
	if baselineMentions < 0 {
		return 0, fmt.Errorf("%w: negative baseline mentions (%g)", ErrInvalidInput, baselineMentions)
	}

	if baselineMentions == 0 {
		if currentMentions > 0 {
			return EmergingVelocity, nil
		}
		return NeutralVelocity, nil
	}
	return float64(currentMentions) / baselineMentions, nil
}
