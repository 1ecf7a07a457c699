package orchestration

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-stage/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	turnsCommitted, _ = meter.Int64Counter(
		"stage.turns.committed",
		metric.WithDescription("Number of turns committed after their reveal drained"),
	)
	turnsAborted, _ = meter.Int64Counter(
		"stage.turns.aborted",
		metric.WithDescription("Number of turns aborted by a stream failure or a reset"),
	)
	voiceDegraded, _ = meter.Int64Counter(
		"stage.voice.degraded",
		metric.WithDescription("Number of lines revealed without voice after a voice failure"),
	)
)
