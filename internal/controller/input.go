package controller

import "sync"

// Input holds the text being edited until it is submitted
type Input struct {
	mu   sync.RWMutex
	text string
}

func (in *Input) Set(text string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.text = text
}

func (in *Input) Value() string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.text
}

// SubmitTo submits the current value. The text is kept so it can be submitted again.
func (in *Input) SubmitTo(c *Controller) {
	c.Submit(in.Value())
}
