package classifier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/emotion-classifier/internal/models"
)

func TestNormalize(t *testing.T) {
	t.Run("ranks scores descending", func(t *testing.T) {
		raw := json.RawMessage(`[{"label":"joy","score":0.2},{"label":"anger","score":0.7},{"label":"fear","score":0.1}]`)

		outcome, err := NewNormalizer(false).Normalize(raw)
		require.NoError(t, err)

		result, ok := outcome.Result()
		require.True(t, ok)
		assert.Equal(t, "anger", result.PredictedClass)
		assert.Equal(t, []models.Score{
			{Label: "anger", Score: 0.7},
			{Label: "joy", Score: 0.2},
			{Label: "fear", Score: 0.1},
		}, result.Probabilities)
	})

	t.Run("first maximum wins ties", func(t *testing.T) {
		raw := json.RawMessage(`[{"label":"a","score":0.5},{"label":"b","score":0.5}]`)

		outcome, err := NewNormalizer(false).Normalize(raw)
		require.NoError(t, err)

		result, ok := outcome.Result()
		require.True(t, ok)
		assert.Equal(t, "a", result.PredictedClass)
		assert.Equal(t, []models.Score{{Label: "a", Score: 0.5}, {Label: "b", Score: 0.5}}, result.Probabilities)
	})

	t.Run("ties below the maximum keep their order", func(t *testing.T) {
		raw := json.RawMessage(`[{"label":"x","score":0.1},{"label":"top","score":0.6},{"label":"y","score":0.1},{"label":"z","score":0.2}]`)

		outcome, err := NewNormalizer(false).Normalize(raw)
		require.NoError(t, err)

		result, _ := outcome.Result()
		labels := make([]string, 0, len(result.Probabilities))
		for _, p := range result.Probabilities {
			labels = append(labels, p.Label)
		}
		assert.Equal(t, []string{"top", "z", "x", "y"}, labels)
		assert.Equal(t, result.Probabilities[0].Label, result.PredictedClass)
	})

	t.Run("extra fields are tolerated", func(t *testing.T) {
		raw := json.RawMessage(`[{"label":"joy","score":0.9,"id":3}]`)

		outcome, err := NewNormalizer(false).Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, models.Recognized, outcome.Kind())
	})

	t.Run("objects pass through verbatim", func(t *testing.T) {
		raw := json.RawMessage(`{"foo":"bar"}`)

		outcome, err := NewNormalizer(false).Normalize(raw)
		require.NoError(t, err)

		_, ok := outcome.Result()
		assert.False(t, ok)
		body, ok := outcome.Raw()
		require.True(t, ok)
		assert.Equal(t, `{"foo":"bar"}`, string(body))
	})

	t.Run("empty array is unrecognized", func(t *testing.T) {
		outcome, err := NewNormalizer(false).Normalize(json.RawMessage(`[]`))
		require.NoError(t, err)
		assert.Equal(t, models.Unrecognized, outcome.Kind())
	})

	t.Run("array of other shapes is unrecognized", func(t *testing.T) {
		for _, body := range []string{`[1,2,3]`, `[{"label":"joy"}]`, `[{"label":"joy","score":"high"}]`} {
			outcome, err := NewNormalizer(false).Normalize(json.RawMessage(body))
			require.NoError(t, err)
			assert.Equal(t, models.Unrecognized, outcome.Kind(), body)
		}
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		_, err := NewNormalizer(false).Normalize(json.RawMessage(`{not json`))

		var malformed *MalformedResponseError
		assert.ErrorAs(t, err, &malformed)
	})
}

func TestNormalize_Envelope(t *testing.T) {
	envelope := json.RawMessage(`{"code":"000","message":"ok","data":[[{"label":"fear","score":0.3},{"label":"joy","score":0.6}]]}`)

	t.Run("unwrapped when enabled", func(t *testing.T) {
		outcome, err := NewNormalizer(true).Normalize(envelope)
		require.NoError(t, err)

		result, ok := outcome.Result()
		require.True(t, ok)
		assert.Equal(t, "joy", result.PredictedClass)
		assert.Len(t, result.Probabilities, 2)
	})

	t.Run("flat data array", func(t *testing.T) {
		outcome, err := NewNormalizer(true).Normalize(json.RawMessage(`{"data":[{"label":"sadness","score":0.8}]}`))
		require.NoError(t, err)

		result, ok := outcome.Result()
		require.True(t, ok)
		assert.Equal(t, "sadness", result.PredictedClass)
	})

	t.Run("passed through when disabled", func(t *testing.T) {
		outcome, err := NewNormalizer(false).Normalize(envelope)
		require.NoError(t, err)

		body, ok := outcome.Raw()
		require.True(t, ok)
		assert.JSONEq(t, string(envelope), string(body))
	})

	t.Run("objects without data pass through", func(t *testing.T) {
		outcome, err := NewNormalizer(true).Normalize(json.RawMessage(`{"foo":"bar"}`))
		require.NoError(t, err)

		body, ok := outcome.Raw()
		require.True(t, ok)
		assert.Equal(t, `{"foo":"bar"}`, string(body))
	})
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	scores := []models.Score{{Label: "a", Score: 0.1}, {Label: "b", Score: 0.9}}

	result := Rank(scores)

	assert.Equal(t, "b", result.PredictedClass)
	assert.Equal(t, "a", scores[0].Label)
}
