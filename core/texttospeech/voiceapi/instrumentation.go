package voiceapi

import "go.opentelemetry.io/otel"

const scopeName = "github.com/koscakluka/ema-stage/core/texttospeech/voiceapi"

var tracer = otel.Tracer(scopeName)
