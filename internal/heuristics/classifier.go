// Package heuristics maps image metrics and interaction signals to gender and
// emotion labels through ordered rule tables. Every function here is pure: the
// same Signals always produce the same labels.
package heuristics

// Signals are the inputs of a classification
type Signals struct {
	Brightness            float64 `json:"brightness"`
	BackgroundClutter     float64 `json:"background_clutter"`
	InteractionDurationMs int64   `json:"interaction_duration_ms"`
	HourOfDay             int     `json:"hour_of_day"`
	RetakeCount           int     `json:"retake_count"`
	DevicePlatform        string  `json:"device_platform,omitempty"`
}

// Result is the outcome of Classify
type Result struct {
	Gender          Gender  `json:"gender"`
	DominantEmotion Emotion `json:"dominant_emotion"`
}

// GenderRule adds Weight to the score when Applies holds
type GenderRule struct {
	Name    string
	Weight  float64
	Applies func(Signals) bool
}

// EmotionRule yields Label when Matches holds
type EmotionRule struct {
	Name    string
	Label   Emotion
	Matches func(Signals) bool
}

const (
	femaleMinScore = 2.0
	maleMaxScore   = 1.0
)

var genderRules = []GenderRule{
	{
		Name:    "bright_image",
		Weight:  1,
		Applies: func(s Signals) bool { return s.Brightness > 0.45 },
	},
	{
		Name:    "clean_background",
		Weight:  1,
		Applies: func(s Signals) bool { return s.BackgroundClutter < 0.35 },
	},
	{
		Name:    "long_interaction",
		Weight:  1,
		Applies: func(s Signals) bool { return s.InteractionDurationMs > 5000 },
	},
	{
		Name:    "ios_device",
		Weight:  0.5,
		Applies: func(s Signals) bool { return s.DevicePlatform == "ios" },
	},
}

// Order matters: the first matching rule wins.
var emotionRules = []EmotionRule{
	{
		Name:    "late_night",
		Label:   EmotionNeutral,
		Matches: func(s Signals) bool { return isLateNight(s.HourOfDay) },
	},
	{
		Name:  "dark_and_slow",
		Label: EmotionSad,
		Matches: func(s Signals) bool {
			return s.Brightness < 0.35 && s.InteractionDurationMs > 6000
		},
	},
	{
		Name:    "many_retakes",
		Label:   EmotionNeutral,
		Matches: func(s Signals) bool { return s.RetakeCount >= 2 },
	},
	{
		Name:  "bright_and_quick",
		Label: EmotionHappy,
		Matches: func(s Signals) bool {
			return s.Brightness > 0.6 && s.InteractionDurationMs < 3000
		},
	},
	{
		Name:    "very_long_interaction",
		Label:   EmotionFearful,
		Matches: func(s Signals) bool { return s.InteractionDurationMs > 9000 },
	},
}

// isLateNight covers 23:00 through 05:59; hours outside 0-23 wrap around the clock
func isLateNight(hour int) bool {
	h := ((hour % 24) + 24) % 24
	return h >= 23 || h <= 5
}

// GenderRules returns a copy of the gender rule table
func GenderRules() []GenderRule {
	return append([]GenderRule(nil), genderRules...)
}

// EmotionRules returns a copy of the emotion rule table in evaluation order
func EmotionRules() []EmotionRule {
	return append([]EmotionRule(nil), emotionRules...)
}

// GenderScore sums the weights of every applicable gender rule
func GenderScore(s Signals) float64 {
	var score float64
	for _, rule := range genderRules {
		if rule.Applies(s) {
			score += rule.Weight
		}
	}
	return score
}

// ClassifyGender maps the gender score onto three bands:
// >= 2 female, <= 1 male, anything in between unknown
func ClassifyGender(s Signals) Gender {
	score := GenderScore(s)

	if score >= femaleMinScore {
		return GenderFemale
	}
	if score <= maleMaxScore {
		return GenderMale
	}

	return GenderUnknown
}

// ClassifyEmotion evaluates the emotion rules in order and falls back to neutral
func ClassifyEmotion(s Signals) Emotion {
	label, _ := MatchEmotion(s)
	return label
}

// MatchEmotion is ClassifyEmotion that also returns the name of the rule that
// fired, or "default" when none did
func MatchEmotion(s Signals) (Emotion, string) {
	for _, rule := range emotionRules {
		if rule.Matches(s) {
			return rule.Label, rule.Name
		}
	}
	return EmotionNeutral, "default"
}

// Classify returns both labels for s
func Classify(s Signals) Result {
	return Result{
		Gender:          ClassifyGender(s),
		DominantEmotion: ClassifyEmotion(s),
	}
}
