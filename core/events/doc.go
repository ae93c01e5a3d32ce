// Package events defines the typed coordination event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - mic.*
//   - synthesis.*
//   - transcript.*
//   - session.*
//   - coordination.*
//
// Semantics used across the package:
//
//   - Started/Stopped: hardware lifecycle boundaries as acknowledged by the
//     platform adapter, not as requested by the coordinator.
//   - Partial: a recognition fragment that may still grow.
//   - Delivered: terminal transcript handed to the caller, already past the
//     debounce filter and mute window.
//
// mic events
//
//   - MicListeningStarted (mic.listening_started): the adapter confirmed the
//     microphone stream is open.
//   - MicListeningStopped (mic.listening_stopped): the adapter reported the
//     stream closed; Attributed reports whether the stop matched a stop the
//     coordinator itself requested.
//   - MicCue (mic.cue): the "mic is live" cue fired after a settle drain.
//   - MicBusyChanged (mic.busy_changed): the sustained-failure lockout was
//     tripped or cleared.
//
// synthesis events
//
//   - SynthesisStarted (synthesis.started): speech output is about to begin.
//   - SynthesisEnded (synthesis.ended): the synthesis engine signalled
//     completion.
//
// transcript events
//
//   - TranscriptPartial (transcript.partial): recognition fragment from the
//     adapter, pre-filter.
//   - TranscriptDelivered (transcript.delivered): transcript handed to the
//     caller together with the parsed move, if any.
//
// session events
//
//   - SessionRegistered / SessionUnregistered: registry membership changes.
//   - SessionsPurged (session.purged): a disposable-lane purge completed;
//     ProtectedCleared reports whether the protected lane was cleared too.
//
// coordination events
//
//   - StateChanged (coordination.state_changed): the arbitration state machine
//     moved between Listening, Speaking and Settling.
package events
