package scoring

import "cryptobot/internal/config"

// SentimentScorer turns the aggregated social sentiment into a coarse
// tri-state confirmation: +1 bullish, -1 bearish, 0 neutral. The 24h score is
// discounted when the sample is small, and a small bonus rewards an improving
// 24h-vs-12h trend.
type SentimentScorer struct {
	Config config.SentimentConfig
}

func (s *SentimentScorer) Score(in SentimentData) int {
	score24 := value(in.Score24h)
	score12 := value(in.Score12h)

	reliability := 1.0
	if s.Config.MinTweets > 0 {
		reliability = float64(in.Count24h) / float64(s.Config.MinTweets)
		if reliability > 1 {
			reliability = 1
		}
	}
	weighted := score24 * reliability

	switch {
	case score24 > score12:
		weighted += s.Config.TrendBonus
	case score24 < score12:
		weighted -= s.Config.TrendBonus
	}

	switch {
	case weighted > s.Config.PositiveThreshold:
		return 1
	case weighted < s.Config.NegativeThreshold:
		return -1
	default:
		return 0
	}
}
