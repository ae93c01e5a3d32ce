package voice

import "github.com/c111spike/blindfold-voice/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts StartOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.TranscriptDelivered:
			if opts.onTranscript != nil {
				opts.onTranscript(typedEvent.Transcript, typedEvent.Move)
			}
		case events.TranscriptPartial:
			if opts.onPartialTranscript != nil {
				opts.onPartialTranscript(typedEvent.Transcript)
			}
		case events.MicBusyChanged:
			if opts.onMicUnavailable != nil {
				opts.onMicUnavailable(typedEvent.Busy)
			}
		case events.MicCue:
			if opts.onCue != nil {
				opts.onCue()
			}
		case events.StateChanged:
			if opts.onStateChanged != nil {
				opts.onStateChanged(stateFromName(typedEvent.From), stateFromName(typedEvent.To))
			}
		case events.MicListeningStarted:
			if opts.onListeningChanged != nil {
				opts.onListeningChanged(true)
			}
		case events.MicListeningStopped:
			if opts.onListeningChanged != nil {
				opts.onListeningChanged(false)
			}
		}
	}
}
