package recommend

import "github.com/turtacn/ScenarioIQ/internal/domain/scenario"

// historyConfidenceFloor is the number of offers at which the historical
// signal fully trusts the observed acceptance rate.
const historyConfidenceFloor = 10

// historicalNeutral is the score assigned when nothing is known: a new
// scenario is neither promoted nor buried by history.
const historicalNeutral = 0.5

// historicalScore blends the observed acceptance rate with the neutral prior
// in proportion to how much evidence exists:
//
//	confidence = min(offers/10, 1)
//	score      = rate*confidence + 0.5*(1-confidence)
//
// With zero offers the formula collapses to the neutral 0.5, so cold-start
// scenarios compete on the other three signals.
func historicalScore(stats scenario.SelectionStats) float64 {
	conf := float64(stats.Offers) / historyConfidenceFloor
	if conf > 1 {
		conf = 1
	}
	return stats.Frequency()*conf + historicalNeutral*(1-conf)
}
