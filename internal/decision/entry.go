package decision

import (
	"cryptobot/internal/config"
	"cryptobot/internal/models"
)

// Decision is the entry verdict for one asset in one cycle. Direction is
// DirectionNone when the combined score stays inside the neutral band.
type Decision struct {
	Direction models.Direction
	Combined  float64
}

// EntryEngine combines the technical score with the sentiment confirmation
// and maps the result through the entry thresholds. Thresholds are strict:
// a combined score exactly on the boundary does not trade.
type EntryEngine struct {
	Config config.DecisionConfig
}

func (e *EntryEngine) Decide(technical float64, sentiment int) Decision {
	combined := e.Config.TechnicalWeight*technical + e.Config.SentimentWeight*float64(sentiment)
	direction := models.DirectionNone
	switch {
	case combined > e.Config.LongThreshold:
		direction = models.DirectionLong
	case combined < e.Config.ShortThreshold:
		direction = models.DirectionShort
	}
	return Decision{Direction: direction, Combined: combined}
}
