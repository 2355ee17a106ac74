package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/heuristics"
)

// AnalyticsFilter restricts the analyses included in an aggregate
type AnalyticsFilter struct {
	MinAge  *int
	MaxAge  *int
	Emotion heuristics.Emotion
	Days    int
}

// ParseAnalyticsFilter parses the admin query parameters.
// ageRange is "min-max", emotion a label, dateRange a number of days back.
func ParseAnalyticsFilter(ageRange, emotion, dateRange string) (AnalyticsFilter, error) {
	var f AnalyticsFilter

	if ageRange = strings.TrimSpace(ageRange); ageRange != "" {
		parts := strings.SplitN(ageRange, "-", 2)
		if len(parts) != 2 {
			return f, ErrBadRequest.WithError(errors.New("ageRange must be min-max"))
		}
		lo, errLo := strconv.Atoi(strings.TrimSpace(parts[0]))
		hi, errHi := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errLo != nil || errHi != nil || lo < 0 || hi < lo {
			return f, ErrBadRequest.WithError(fmt.Errorf("invalid ageRange %q", ageRange))
		}
		f.MinAge, f.MaxAge = &lo, &hi
	}

	if emotion = strings.TrimSpace(emotion); emotion != "" {
		e := heuristics.Emotion(strings.ToLower(emotion))
		if !e.Valid() {
			return f, ErrBadRequest.WithError(fmt.Errorf("unknown emotion %q", emotion))
		}
		f.Emotion = e
	}

	if dateRange = strings.TrimSpace(dateRange); dateRange != "" {
		days, err := strconv.Atoi(dateRange)
		if err != nil || days <= 0 {
			return f, ErrBadRequest.WithError(fmt.Errorf("invalid dateRange %q", dateRange))
		}
		f.Days = days
	}

	return f, nil
}

// CacheKey identifies the filter in the analytics cache
func (f AnalyticsFilter) CacheKey() string {
	age := "any"
	if f.MinAge != nil && f.MaxAge != nil {
		age = fmt.Sprintf("%d-%d", *f.MinAge, *f.MaxAge)
	}
	emotion := string(f.Emotion)
	if emotion == "" {
		emotion = "any"
	}
	return fmt.Sprintf("analytics:age=%s:emotion=%s:days=%d", age, emotion, f.Days)
}

// Analytics agrega as análises que passam pelo filtro
type Analytics struct {
	TotalAnalyses     int64            `json:"total_analyses"`
	AverageAge        float64          `json:"avg_age"`
	EmotionBreakdown  map[string]int64 `json:"emotion_breakdown"`
	GenderBreakdown   map[string]int64 `json:"gender_breakdown"`
	AverageBrightness float64          `json:"avg_brightness"`
	AverageClutter    float64          `json:"avg_clutter"`
}

// EmptyAnalytics is the result when no analysis matches
func EmptyAnalytics() *Analytics {
	return &Analytics{
		EmotionBreakdown: map[string]int64{},
		GenderBreakdown:  map[string]int64{},
	}
}
