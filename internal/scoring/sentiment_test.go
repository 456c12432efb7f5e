package scoring

import (
	"testing"

	"cryptobot/internal/config"
)

func testSentimentConfig() config.SentimentConfig {
	return config.SentimentConfig{
		MinTweets:         10,
		PositiveThreshold: 0.2,
		NegativeThreshold: -0.1,
		TrendBonus:        0.1,
	}
}

func TestSentimentThresholds(t *testing.T) {
	s := &SentimentScorer{Config: testSentimentConfig()}

	cases := []struct {
		name    string
		score24 float64
		count24 int
		score12 float64
		want    int
	}{
		{"bullish full sample", 0.5, 10, 0.5, 1},
		{"bearish", -0.5, 20, -0.5, -1},
		{"neutral", 0.1, 20, 0.1, 0},
		{"trend bonus pushes over", 0.15, 20, 0.05, 1},
		{"trend penalty pulls under", -0.05, 20, 0.05, -1},
	}
	for _, tc := range cases {
		got := s.Score(SentimentData{
			Score24h: fptr(tc.score24),
			Count24h: tc.count24,
			Score12h: fptr(tc.score12),
			Count12h: tc.count24,
		})
		if got != tc.want {
			t.Fatalf("%s: got=%d want=%d", tc.name, got, tc.want)
		}
	}
}

func TestSentimentSmallSampleDiscount(t *testing.T) {
	s := &SentimentScorer{Config: testSentimentConfig()}

	// Strong score but only 2 of 10 required tweets: 0.5*0.2=0.1, neutral.
	got := s.Score(SentimentData{Score24h: fptr(0.5), Count24h: 2, Score12h: fptr(0.5)})
	if got != 0 {
		t.Fatalf("discounted got=%d want=0", got)
	}
}

func TestSentimentMissingScoresNeutral(t *testing.T) {
	s := &SentimentScorer{Config: testSentimentConfig()}
	if got := s.Score(SentimentData{}); got != 0 {
		t.Fatalf("empty got=%d want=0", got)
	}
}
