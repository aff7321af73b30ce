package classifier

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/xaenox/emotion-classifier/internal/models"
)

const scoresSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["label", "score"],
		"properties": {
			"label": {"type": "string"},
			"score": {"type": "number"}
		}
	}
}`

var scoresShape = jsonschema.MustCompileString("scores.json", scoresSchema)

// Normalizer turns a raw response body into an Outcome
type Normalizer struct {
	unwrapEnvelope bool
}

// NewNormalizer creates a Normalizer. With unwrapEnvelope set, bodies shaped
// {"data": [[...scores]]} or {"data": [...scores]} are unwrapped before recognition.
func NewNormalizer(unwrapEnvelope bool) *Normalizer {
	return &Normalizer{unwrapEnvelope: unwrapEnvelope}
}

// Normalize recognizes a non-empty array of {label, score} objects, picks the
// first maximum as the predicted class and stable-sorts the scores descending.
// Any other JSON value is returned verbatim as an unrecognized outcome.
func (n *Normalizer) Normalize(raw json.RawMessage) (models.Outcome, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return models.Outcome{}, &MalformedResponseError{Err: err}
	}

	candidate := body
	if n.unwrapEnvelope {
		candidate = unwrap(body)
	}

	if err := scoresShape.Validate(candidate); err != nil {
		return models.NewUnrecognized(raw), nil
	}

	encoded, err := json.Marshal(candidate)
	if err != nil {
		return models.Outcome{}, fmt.Errorf("failed to re-encode scores: %w", err)
	}
	var scores []models.Score
	if err := json.Unmarshal(encoded, &scores); err != nil {
		return models.Outcome{}, &MalformedResponseError{Err: err}
	}

	return models.NewRecognized(Rank(scores)), nil
}

// Rank builds a Result from scores without modifying the input slice.
func Rank(scores []models.Score) models.Result {
	if len(scores) == 0 {
		return models.Result{}
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].Score > scores[best].Score {
			best = i
		}
	}

	sorted := make([]models.Score, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	return models.Result{
		PredictedClass: scores[best].Label,
		Probabilities:  sorted,
	}
}

func unwrap(body any) any {
	envelope, ok := body.(map[string]any)
	if !ok {
		return body
	}
	data, ok := envelope["data"].([]any)
	if !ok {
		return body
	}
	if len(data) > 0 {
		if inner, ok := data[0].([]any); ok {
			return inner
		}
	}
	return data
}
