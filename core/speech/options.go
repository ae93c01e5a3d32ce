package speech

import "github.com/c111spike/blindfold-voice/core/audio"

type Options struct {
	ListeningStartedCallback func()
	ListeningStoppedCallback func()
	PartialResultCallback    func(transcript string)
	FinalResultCallback      func(transcript string)
	SpeechEndedCallback      func()

	EncodingInfo audio.EncodingInfo
}

type Option func(*Options)

func WithListeningStartedCallback(callback func()) Option {
	return func(o *Options) {
		o.ListeningStartedCallback = callback
	}
}

func WithListeningStoppedCallback(callback func()) Option {
	return func(o *Options) {
		o.ListeningStoppedCallback = callback
	}
}

func WithPartialResultCallback(callback func(transcript string)) Option {
	return func(o *Options) {
		o.PartialResultCallback = callback
	}
}

func WithFinalResultCallback(callback func(transcript string)) Option {
	return func(o *Options) {
		o.FinalResultCallback = callback
	}
}

func WithSpeechEndedCallback(callback func()) Option {
	return func(o *Options) {
		o.SpeechEndedCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) Option {
	return func(o *Options) {
		o.EncodingInfo = encodingInfo
	}
}
