package tracking

// Trigger is what drives a delivery forward.
type Trigger int

const (
	// Advance moves to the next status.
	Advance Trigger = iota + 1

	// Refresh recomputes the ETA while staying in the current status.
	Refresh

	// Deliver jumps straight to Delivered.
	Deliver
)

func (t Trigger) String() string {
	switch t {
	case Advance:
		return "advance"
	case Refresh:
		return "refresh"
	case Deliver:
		return "deliver"
	}
	return "unknown"
}

const (
	// PreparingETAMinutes is the ETA set when a delivery enters Preparing.
	PreparingETAMinutes = 15

	// TransitStepMinutes is subtracted from the ETA on every step while in transit.
	TransitStepMinutes = 7

	// MinTransitETAMinutes is the lowest ETA an undelivered order can show.
	MinTransitETAMinutes = 1

	// AdvanceThresholdMinutes lets a Preparing delivery leave once its ETA is this low.
	AdvanceThresholdMinutes = 5
)

// etaRule computes the ETA after a transition from the current one.
type etaRule func(current int) int

func setETA(minutes int) etaRule {
	return func(int) int { return minutes }
}

func decreaseETA(step, floor int) etaRule {
	return func(current int) int {
		return max(current-step, floor)
	}
}

func keepETA(current int) int {
	return current
}

type transition struct {
	next Status
	eta  etaRule
}

type transitionKey struct {
	from    Status
	trigger Trigger
}

// transitions is the whole delivery state machine. A missing key is an illegal move.
var transitions = map[transitionKey]transition{
	{Preparing, Advance}: {next: InTransit, eta: decreaseETA(TransitStepMinutes, MinTransitETAMinutes)},
	{Preparing, Refresh}: {next: Preparing, eta: keepETA},
	{Preparing, Deliver}: {next: Delivered, eta: setETA(0)},
	{InTransit, Advance}: {next: Delivered, eta: setETA(0)},
	{InTransit, Refresh}: {next: InTransit, eta: decreaseETA(TransitStepMinutes, MinTransitETAMinutes)},
	{InTransit, Deliver}: {next: Delivered, eta: setETA(0)},
}

func lookupTransition(from Status, trigger Trigger) (transition, bool) {
	t, ok := transitions[transitionKey{from: from, trigger: trigger}]
	return t, ok
}
