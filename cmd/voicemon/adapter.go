package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/c111spike/blindfold-voice/core/speech"
)

// scriptedAdapter stands in for the platform speech services: starts and
// stops acknowledge immediately, synthesis "plays" for a duration derived
// from the text length, and hardware start failures can be toggled to watch
// the coordinator's lockout behavior.
type scriptedAdapter struct {
	mu   sync.Mutex
	opts speech.Options

	failStarts bool
}

func newScriptedAdapter() *scriptedAdapter {
	return &scriptedAdapter{}
}

func (a *scriptedAdapter) Open(_ context.Context, opts ...speech.Option) error {
	options := speech.Options{}
	for _, opt := range opts {
		opt(&options)
	}
	a.mu.Lock()
	a.opts = options
	a.mu.Unlock()
	return nil
}

func (a *scriptedAdapter) StartListening(context.Context) error {
	a.mu.Lock()
	fail := a.failStarts
	callback := a.opts.ListeningStartedCallback
	a.mu.Unlock()

	if fail {
		return errors.New("scripted hardware failure")
	}
	if callback != nil {
		callback()
	}
	return nil
}

func (a *scriptedAdapter) StopListening(context.Context) error {
	a.mu.Lock()
	callback := a.opts.ListeningStoppedCallback
	a.mu.Unlock()

	if callback != nil {
		callback()
	}
	return nil
}

func (a *scriptedAdapter) Speak(_ context.Context, text string) error {
	a.mu.Lock()
	callback := a.opts.SpeechEndedCallback
	a.mu.Unlock()

	// Roughly 60ms per character, floored so even short phrases visibly
	// hold the Speaking state.
	duration := max(time.Duration(len(text))*60*time.Millisecond, 500*time.Millisecond)
	time.AfterFunc(duration, func() {
		if callback != nil {
			callback()
		}
	})
	return nil
}

func (a *scriptedAdapter) ClearPermissionBindings() {}

func (a *scriptedAdapter) setFailStarts(fail bool) {
	a.mu.Lock()
	a.failStarts = fail
	a.mu.Unlock()
}

// sendPartial injects a recognition fragment as if the recognizer heard it.
func (a *scriptedAdapter) sendPartial(transcript string) {
	a.mu.Lock()
	callback := a.opts.PartialResultCallback
	a.mu.Unlock()
	if callback != nil {
		callback(transcript)
	}
}

func (a *scriptedAdapter) sendFinal(transcript string) {
	a.mu.Lock()
	callback := a.opts.FinalResultCallback
	a.mu.Unlock()
	if callback != nil {
		callback(transcript)
	}
}
