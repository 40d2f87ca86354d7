// Package stats contains metric calculations and reporting.
package stats

import (
	"errors"
	"math"
	"time"
	"unicode/utf8"
)

// CharsPerWord is the standard typing convention for one word.
const CharsPerWord = 5.0

// ErrInvalidTiming is returned when a score is requested for a non-positive timing.
var ErrInvalidTiming = errors.New("timing must be greater than zero")

// ErrScoreOutOfRange is returned when the computed score does not fit an int.
var ErrScoreOutOfRange = errors.New("score out of range")

// CalculateAccuracy returns the percentage of target characters reproduced at the same position.
func CalculateAccuracy(target, typed string) float64 {
	targetRunes := []rune(target)
	if len(targetRunes) == 0 {
		return 0
	}
	typedRunes := []rune(typed)
	correct := 0
	for i, r := range typedRunes {
		if i >= len(targetRunes) {
			break
		}
		if r == targetRunes[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(targetRunes)) * 100
}

// CalculateWPM computes accuracy-adjusted words per minute and raw characters per minute.
func CalculateWPM(typed string, accuracy float64, elapsed time.Duration) (wpm, cpm float64) {
	if elapsed <= 0 {
		return 0, 0
	}
	minutes := elapsed.Minutes()
	chars := float64(utf8.RuneCountInString(typed))
	cpm = math.Round(chars / minutes)
	wpm = math.Round(chars * (accuracy / 100) / CharsPerWord / minutes)
	return wpm, cpm
}

// CalculateErrorPercentage returns the complement of accuracy.
func CalculateErrorPercentage(accuracy float64) float64 {
	return 100 - accuracy
}

// Score computes the composite leaderboard score round(wpm * accuracy/100 / sqrt(timing)).
func Score(wpm, accuracy, timing float64) (int, error) {
	if !finite(wpm) || !finite(accuracy) || !finite(timing) || timing <= 0 {
		return 0, ErrInvalidTiming
	}
	v := math.Round(wpm * (accuracy / 100) / math.Sqrt(timing))
	// float64(math.MaxInt64) rounds up to 2^63, which already overflows.
	if !finite(v) || v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, ErrScoreOutOfRange
	}
	return int(v), nil
}

// TimingSeconds converts an elapsed duration to the whole-second timing used in scores.
// A completed session always reports at least one second.
func TimingSeconds(elapsed time.Duration) float64 {
	if elapsed < 0 {
		return 0
	}
	secs := math.Round(elapsed.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
