package voice

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/c111spike/blindfold-voice/core/speech"
)

// fakeAdapter is a scripted hardware adapter: starts and stops acknowledge
// through the configured callbacks unless acknowledgements are disabled, and
// start failures can be injected.
type fakeAdapter struct {
	mu   sync.Mutex
	opts speech.Options

	openErr        error
	startErr       error
	stopErr        error
	speakErr       error
	startErrBudget int

	ackStarts bool
	ackStops  bool

	startCalls atomic.Int32
	stopCalls  atomic.Int32
	speakCalls atomic.Int32

	permissionClears atomic.Int32

	spoken []string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{ackStarts: true, ackStops: true}
}

func (f *fakeAdapter) Open(_ context.Context, opts ...speech.Option) error {
	options := speech.Options{}
	for _, opt := range opts {
		opt(&options)
	}
	f.mu.Lock()
	f.opts = options
	err := f.openErr
	f.mu.Unlock()
	return err
}

func (f *fakeAdapter) StartListening(context.Context) error {
	f.startCalls.Add(1)

	f.mu.Lock()
	err := f.startErr
	if err != nil && f.startErrBudget > 0 {
		f.startErrBudget--
		if f.startErrBudget == 0 {
			f.startErr = nil
		}
	}
	ack := f.ackStarts
	callback := f.opts.ListeningStartedCallback
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if ack && callback != nil {
		callback()
	}
	return nil
}

func (f *fakeAdapter) StopListening(context.Context) error {
	f.stopCalls.Add(1)

	f.mu.Lock()
	err := f.stopErr
	ack := f.ackStops
	callback := f.opts.ListeningStoppedCallback
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if ack && callback != nil {
		callback()
	}
	return nil
}

func (f *fakeAdapter) Speak(_ context.Context, text string) error {
	f.speakCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.speakErr != nil {
		return f.speakErr
	}
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeAdapter) ClearPermissionBindings() {
	f.permissionClears.Add(1)
}

func (f *fakeAdapter) setStartErr(err error) {
	f.mu.Lock()
	f.startErr = err
	f.startErrBudget = 0
	f.mu.Unlock()
}

// failNextStarts fails exactly n start attempts, then recovers on its own.
func (f *fakeAdapter) failNextStarts(n int, err error) {
	f.mu.Lock()
	f.startErr = err
	f.startErrBudget = n
	f.mu.Unlock()
}

func (f *fakeAdapter) endSpeech() {
	f.mu.Lock()
	callback := f.opts.SpeechEndedCallback
	f.mu.Unlock()
	if callback != nil {
		callback()
	}
}

func (f *fakeAdapter) sendPartial(transcript string) {
	f.mu.Lock()
	callback := f.opts.PartialResultCallback
	f.mu.Unlock()
	if callback != nil {
		callback(transcript)
	}
}

func (f *fakeAdapter) sendFinal(transcript string) {
	f.mu.Lock()
	callback := f.opts.FinalResultCallback
	f.mu.Unlock()
	if callback != nil {
		callback(transcript)
	}
}

// fireUnsolicitedStop simulates the platform closing the stream on its own.
func (f *fakeAdapter) fireUnsolicitedStop() {
	f.mu.Lock()
	callback := f.opts.ListeningStoppedCallback
	f.mu.Unlock()
	if callback != nil {
		callback()
	}
}

func testTimings() Timings {
	return Timings{
		SettleDelay:     60 * time.Millisecond,
		RestartBuffer:   10 * time.Millisecond,
		RetryDelay:      15 * time.Millisecond,
		DebounceWindow:  120 * time.Millisecond,
		PurgeSilence:    80 * time.Millisecond,
		TeardownCeiling: 150 * time.Millisecond,
	}
}

func newTestCoordinator(t *testing.T, adapter speech.Adapter, newOpts []CoordinatorOption, startOpts ...StartOption) *Coordinator {
	t.Helper()

	newOpts = append([]CoordinatorOption{WithTimings(testTimings())}, newOpts...)
	c := New(adapter, newOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	t.Cleanup(c.Close)

	if err := c.Start(ctx, startOpts...); err != nil {
		t.Fatalf("failed to start coordinator: %v", err)
	}
	return c
}

// flush waits until everything already posted to the runtime has executed.
func flush(t *testing.T, c *Coordinator) {
	t.Helper()
	done := make(chan struct{})
	c.post(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for runtime to drain")
	}
}

func waitFor(t *testing.T, condition func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", message)
}
