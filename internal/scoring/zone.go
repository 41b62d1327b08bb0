package scoring

import "github.com/blackwell-systems/pulsewatch/internal/config"

// Zone is the recovery band a readiness score lands in. Each zone maps
// onto one training directive.
type Zone string

const (
	// ZoneGreen means fully recovered.
	ZoneGreen Zone = "green"

	// ZoneYellow means normal training fatigue.
	ZoneYellow Zone = "yellow"

	// ZoneOrange means recovery is lagging.
	ZoneOrange Zone = "orange"

	// ZoneRed means the body needs rest.
	ZoneRed Zone = "red"
)

// ZoneFor maps a readiness score onto its recovery band. Thresholds
// are lower bounds: a score equal to the green threshold is already
// green. Config validation keeps the thresholds strictly descending,
// so the four bands always partition the score range.
func ZoneFor(score float64, z config.Zones) Zone {
	switch {
	case score >= z.Green:
		return ZoneGreen
	case score >= z.Yellow:
		return ZoneYellow
	case score >= z.Orange:
		return ZoneOrange
	default:
		return ZoneRed
	}
}

// Directive returns the headline training call for the zone.
func (z Zone) Directive() string {
	switch z {
	case ZoneGreen:
		return "Train as planned"
	case ZoneYellow:
		return "Proceed with awareness"
	case ZoneOrange:
		return "Modify workout"
	default:
		return "Back off"
	}
}
