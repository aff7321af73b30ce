package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/emotion-classifier/internal/classifier"
	"github.com/xaenox/emotion-classifier/internal/controller"
)

type recordingClassifier struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingClassifier) Classify(_ context.Context, text string) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return json.RawMessage(`[{"label":"neutral","score":1}]`), nil
}

func (r *recordingClassifier) Name() string { return "recording" }

func (r *recordingClassifier) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func newTestController(clf classifier.Classifier) *controller.Controller {
	return controller.New(clf, classifier.NewNormalizer(false), controller.Options{DiscardStale: true}, zap.NewNop())
}

func TestRunInteractive_LongLines(t *testing.T) {
	clf := &recordingClassifier{}
	long := strings.Repeat("x", 70000)
	in := strings.NewReader("short\n" + long + "\nafter\n")

	var out bytes.Buffer
	err := runInteractive(newTestController(clf), in, &out)

	require.NoError(t, err)
	texts := clf.Texts()
	require.Len(t, texts, 3)
	assert.ElementsMatch(t, []string{"short", long, "after"}, texts)
}

func TestRunInteractive_PrintsStates(t *testing.T) {
	clf := &recordingClassifier{}

	var out bytes.Buffer
	err := runInteractive(newTestController(clf), strings.NewReader("hello\n"), &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Predicted class: neutral")
}

func TestRunInteractive_ReadError(t *testing.T) {
	clf := &recordingClassifier{}
	boom := errors.New("stdin closed")

	err := runInteractive(newTestController(clf), iotest.ErrReader(boom), &bytes.Buffer{})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, clf.Texts())
}
