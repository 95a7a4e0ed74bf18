// ABOUTME: Sentiment presentation helpers for interaction analyses
// ABOUTME: Maps a [-1, 1] score to a percentage, category, and label
package models

// Sentiment category constants.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

var sentimentLabels = map[string]string{
	SentimentPositive: "Positive",
	SentimentNegative: "Needs Attention",
	SentimentNeutral:  "Neutral",
}

// SentimentPercentage maps a score in [-1, 1] onto [0, 100]; nil is neutral.
func SentimentPercentage(score *float64) float64 {
	if score == nil {
		return 50.0
	}
	p := (*score + 1) * 50
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func SentimentCategory(score *float64) string {
	p := SentimentPercentage(score)
	if p > 60 {
		return SentimentPositive
	}
	if p < 40 {
		return SentimentNegative
	}
	return SentimentNeutral
}

func SentimentLabel(score *float64) string {
	return sentimentLabels[SentimentCategory(score)]
}

func (a *InteractionAnalysis) SentimentPercentage() float64 {
	return SentimentPercentage(a.SentimentScore)
}

func (a *InteractionAnalysis) SentimentCategory() string {
	return SentimentCategory(a.SentimentScore)
}

func (a *InteractionAnalysis) SentimentLabel() string {
	return SentimentLabel(a.SentimentScore)
}

// NeedsAttention flags analyses whose sentiment reads negative.
func (a *InteractionAnalysis) NeedsAttention() bool {
	return a.SentimentCategory() == SentimentNegative
}
