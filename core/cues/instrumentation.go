package cues

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/ema-stage/core/cues"

var (
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var cuesFired, _ = meter.Int64Counter(
	"stage.cues.fired",
	metric.WithDescription("Number of sound effect cues that started playing"),
)
