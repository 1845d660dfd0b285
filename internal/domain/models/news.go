package models

// NewsItem is a headline scored by the upstream news pipeline.
type NewsItem struct {
	Date                      string  `json:"date"`
	Title                     string  `json:"title"`
	URL                       string  `json:"url"`
	IsPriceRelated            bool    `json:"is_price_related"`
	PreprocessedTitle         string  `json:"preprocessed_title"`
	PositiveSentiment         float64 `json:"positive_sentiment"`
	NegativeSentiment         float64 `json:"negative_sentiment"`
	NeutralSentiment          float64 `json:"neutral_sentiment"`
	RisePresent               float64 `json:"rise_present"`
	IncreasePresent           float64 `json:"increase_present"`
	JumpPresent               float64 `json:"jump_present"`
	SurgePresent              float64 `json:"surge_present"`
	ClimbPresent              float64 `json:"climb_present"`
	FallPresent               float64 `json:"fall_present"`
	DropPresent               float64 `json:"drop_present"`
	DecreasePresent           float64 `json:"decrease_present"`
	DeclinePresent            float64 `json:"decline_present"`
	PlungePresent             float64 `json:"plunge_present"`
	WeightedPositiveSentiment float64 `json:"weighted_positive_sentiment"`
	WeightedNegativeSentiment float64 `json:"weighted_negative_sentiment"`
	PredictedPriceDirection   string  `json:"predicted_price_direction"`
}
