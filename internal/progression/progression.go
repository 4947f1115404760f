package progression

import (
	"fmt"
	"math"

	"github.com/meltforce/liftlog/internal/models"
)

// SetsForWeek resolves how many sets an exercise slot requires in a given
// week: ceil(baseSets + increment × (week − 1)). Non-decreasing in week for
// non-negative increments. Inputs are not clamped; callers are responsible
// for sane values.
func SetsForWeek(baseSets, increment float64, week int) int {
	return int(math.Ceil(baseSets + increment*float64(week-1)))
}

// TargetReps is the advisory rep target for a slot: the midpoint of its rep
// range, rounded.
func TargetReps(slot models.ExerciseSlot) int {
	return int(math.Round(float64(slot.RepRangeMin+slot.RepRangeMax) / 2))
}

// DefaultWeightIncrement is the plate jump used for weight suggestions when
// the exercise does not specify one.
const DefaultWeightIncrement = 2.5

// Suggestion is a recommended weight and rep count for the next attempt at a
// set, derived from the previous session's performance.
type Suggestion struct {
	Weight      float64 `json:"weight"`
	WeightDelta float64 `json:"weight_delta"`
	Reps        int     `json:"reps"`
	Reason      string  `json:"reason"`
}

// Suggest computes a progression suggestion from the previous session's set.
// Returns nil when there is no usable history.
//
//   - RIR >= 3 at the top of the rep range: add weight
//   - RIR 2 at the top of the range: add weight, restart at the bottom
//   - RIR 2 inside the range: same weight, one more rep
//   - RIR 1: same weight, match reps
//   - RIR 0 or missed the bottom of the range: same weight, recover
func Suggest(prev *models.PreviousSet, repMin, repMax int, weightIncrement float64) *Suggestion {
	if prev == nil || prev.Weight == nil || prev.Reps == nil {
		return nil
	}

	weight := *prev.Weight
	reps := *prev.Reps
	midReps := int(math.Round(float64(repMin+repMax) / 2))
	hitTop := reps >= repMax
	hitBottom := reps >= repMin

	if prev.RIR != nil {
		switch rir := *prev.RIR; {
		case rir >= 3 && hitTop:
			return &Suggestion{
				Weight:      weight + weightIncrement,
				WeightDelta: weightIncrement,
				Reps:        midReps,
				Reason:      fmt.Sprintf("You had %d reps left last time at %d reps", rir, reps),
			}
		case rir == 2 && hitTop:
			return &Suggestion{
				Weight:      weight + weightIncrement,
				WeightDelta: weightIncrement,
				Reps:        repMin,
				Reason:      "Strong set last time, ready for more weight",
			}
		case rir == 2 && hitBottom:
			return &Suggestion{
				Weight: weight,
				Reps:   min(reps+1, repMax),
				Reason: fmt.Sprintf("Try for %d reps this time", reps+1),
			}
		case rir == 1:
			return &Suggestion{
				Weight: weight,
				Reps:   reps,
				Reason: fmt.Sprintf("Close to failure last time, match or beat %d reps", reps),
			}
		}
	}

	if !hitBottom {
		return &Suggestion{
			Weight: weight,
			Reps:   repMin,
			Reason: "Missed rep target last time, focus on form",
		}
	}
	if prev.RIR != nil && *prev.RIR == 0 {
		return &Suggestion{
			Weight: weight,
			Reps:   reps,
			Reason: "Hit failure last time, maintain and recover",
		}
	}

	return &Suggestion{
		Weight: weight,
		Reps:   reps,
		Reason: "Match your previous performance",
	}
}
