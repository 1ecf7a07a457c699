package simulation

import "go.opentelemetry.io/otel"

const scopeName = "github.com/koscakluka/ema-stage/core/simulation"

var tracer = otel.Tracer(scopeName)
