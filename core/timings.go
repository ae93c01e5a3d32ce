package voice

import "time"

// The delays below were tuned against real devices in the original app and
// are not derived from any platform documentation.
const (
	// DefaultSettleDelay keeps the microphone closed after synthesis ends so
	// the platform audio pipeline can release exclusive access. Reopening
	// sooner picks up the tail of the spoken audio as input.
	DefaultSettleDelay = 350 * time.Millisecond
	// DefaultRestartBuffer separates a stop command from the following start
	// command within one restart sequence.
	DefaultRestartBuffer = 100 * time.Millisecond
	// DefaultRetryDelay spaces the single retry after a failed start.
	DefaultRetryDelay = 200 * time.Millisecond
	// DefaultDebounceWindow is how long an ambiguous move fragment waits for
	// a more complete transcript.
	DefaultDebounceWindow = 2000 * time.Millisecond
	// DefaultPurgeSilence is the quiet window a purge waits out before
	// returning, so the next session starts against settled hardware.
	DefaultPurgeSilence = 500 * time.Millisecond
	// DefaultTeardownCeiling bounds StopAndWait; past it the coordinator
	// force-clears state rather than waiting on the adapter.
	DefaultTeardownCeiling = 800 * time.Millisecond
)

// maxConsecutiveStartFailures is how many start failures in a row trip the
// busy lockout.
const maxConsecutiveStartFailures = 3

// Timings collects every delay the coordinator schedules. Tests shrink them;
// production code uses DefaultTimings.
type Timings struct {
	SettleDelay     time.Duration
	RestartBuffer   time.Duration
	RetryDelay      time.Duration
	DebounceWindow  time.Duration
	PurgeSilence    time.Duration
	TeardownCeiling time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		SettleDelay:     DefaultSettleDelay,
		RestartBuffer:   DefaultRestartBuffer,
		RetryDelay:      DefaultRetryDelay,
		DebounceWindow:  DefaultDebounceWindow,
		PurgeSilence:    DefaultPurgeSilence,
		TeardownCeiling: DefaultTeardownCeiling,
	}
}

// withDefaults fills zero fields so partial overrides keep sane values.
func (t Timings) withDefaults() Timings {
	defaults := DefaultTimings()
	if t.SettleDelay == 0 {
		t.SettleDelay = defaults.SettleDelay
	}
	if t.RestartBuffer == 0 {
		t.RestartBuffer = defaults.RestartBuffer
	}
	if t.RetryDelay == 0 {
		t.RetryDelay = defaults.RetryDelay
	}
	if t.DebounceWindow == 0 {
		t.DebounceWindow = defaults.DebounceWindow
	}
	if t.PurgeSilence == 0 {
		t.PurgeSilence = defaults.PurgeSilence
	}
	if t.TeardownCeiling == 0 {
		t.TeardownCeiling = defaults.TeardownCeiling
	}
	return t
}
