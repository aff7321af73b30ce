package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xaenox/emotion-classifier/internal/models"
)

const (
	BarWidth = 20

	LoadingText = "⏳ Analyzing..."
)

var emojis = map[string]string{
	"anger":    "😠",
	"disgust":  "🤢",
	"fear":     "😨",
	"joy":      "😄",
	"neutral":  "😐",
	"sadness":  "😢",
	"surprise": "😲",
}

// Emoji returns the emoji for an emotion label, or "" for unknown labels
func Emoji(label string) string {
	return emojis[strings.ToLower(label)]
}

// Percent formats a score in [0,1] as a percentage with one decimal
func Percent(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

// Bar draws a bar of BarWidth cells filled in proportion to score*100 percent.
// Scores outside [0,1] are clamped.
func Bar(score float64) string {
	filled := int(math.Round(score * BarWidth))
	if filled < 0 {
		filled = 0
	}
	if filled > BarWidth {
		filled = BarWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", BarWidth-filled)
}

// Rows renders one line per probability, labels padded to a common width
func Rows(result models.Result) []string {
	width := 0
	for _, p := range result.Probabilities {
		if n := utf8.RuneCountInString(p.Label); n > width {
			width = n
		}
	}

	rows := make([]string, 0, len(result.Probabilities))
	for _, p := range result.Probabilities {
		rows = append(rows, fmt.Sprintf("%-*s %s %6s", width, p.Label, Bar(p.Score), Percent(p.Score)))
	}
	return rows
}

// PredictedLine renders the predicted class callout
func PredictedLine(result models.Result) string {
	line := "Predicted class: " + result.PredictedClass
	if e := Emoji(result.PredictedClass); e != "" {
		line += " " + e
	}
	return line
}

// Raw indents an unrecognized body for display, falling back to the bytes as-is
func Raw(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Text renders a state for a terminal
func Text(s models.State) string {
	switch s.Phase() {
	case models.PhaseLoading:
		return LoadingText
	case models.PhaseError:
		msg, _ := s.Message()
		return "⚠️ " + msg
	case models.PhaseSuccess:
		outcome, _ := s.Outcome()
		if result, ok := outcome.Result(); ok {
			lines := append([]string{PredictedLine(result)}, Rows(result)...)
			return strings.Join(lines, "\n")
		}
		raw, _ := outcome.Raw()
		return "Raw response:\n" + Raw(raw)
	default:
		return ""
	}
}
