package heuristics

import "strings"

// Gender is a label from the closed gender set
type Gender string

const (
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
	GenderUnknown Gender = "unknown"
)

// Emotion is a label from the closed emotion set
type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionFearful   Emotion = "fearful"
	EmotionDisgusted Emotion = "disgusted"
	EmotionSurprised Emotion = "surprised"
	EmotionNeutral   Emotion = "neutral"
	EmotionAnxious   Emotion = "anxious"
	EmotionUnknown   Emotion = "unknown"
)

var validGenders = map[Gender]bool{
	GenderFemale:  true,
	GenderMale:    true,
	GenderUnknown: true,
}

var validEmotions = map[Emotion]bool{
	EmotionHappy:     true,
	EmotionSad:       true,
	EmotionAngry:     true,
	EmotionFearful:   true,
	EmotionDisgusted: true,
	EmotionSurprised: true,
	EmotionNeutral:   true,
	EmotionAnxious:   true,
	EmotionUnknown:   true,
}

// Valid reports whether g belongs to the gender set
func (g Gender) Valid() bool {
	return validGenders[g]
}

// Valid reports whether e belongs to the emotion set
func (e Emotion) Valid() bool {
	return validEmotions[e]
}

// ParseGender normalizes s and returns the matching label, or GenderUnknown
func ParseGender(s string) Gender {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	if g.Valid() {
		return g
	}
	return GenderUnknown
}

// ParseEmotion normalizes s and returns the matching label, or EmotionUnknown
func ParseEmotion(s string) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	if e.Valid() {
		return e
	}
	return EmotionUnknown
}

// Emotions returns the emotion labels in a fixed order
func Emotions() []Emotion {
	return []Emotion{
		EmotionHappy,
		EmotionSad,
		EmotionAngry,
		EmotionFearful,
		EmotionDisgusted,
		EmotionSurprised,
		EmotionNeutral,
		EmotionAnxious,
		EmotionUnknown,
	}
}
