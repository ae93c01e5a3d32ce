package voice

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/c111spike/blindfold-voice/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	restartCounter, _  = meter.Int64Counter("voice.mic_restart_sequences")
	lockoutCounter, _  = meter.Int64Counter("voice.mic_lockouts")
	purgeCounter, _    = meter.Int64Counter("voice.session_purges")
	deliveryCounter, _ = meter.Int64Counter("voice.transcripts_delivered")
)
