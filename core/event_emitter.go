package orchestration

import (
	"time"

	"github.com/koscakluka/ema-stage/core/cues"
	events "github.com/koscakluka/ema-stage/core/events"
)

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newEventEmitter(handlers []func(events.Event)) eventEmitter {
	if len(handlers) == 0 {
		return noopEventEmitter
	}

	return func(event events.Event) {
		for _, handler := range handlers {
			handler(event)
		}
	}
}

// cueCallbacks forwards synchronizer callbacks as cue events.
func (emit eventEmitter) cueCallbacks() (func(cues.Cue, time.Duration), func(cues.Cue)) {
	return func(cue cues.Cue, delay time.Duration) {
			emit(events.NewCueScheduled(cue.Tag, delay))
		}, func(cue cues.Cue) {
			emit(events.NewCueFired(cue.Tag))
		}
}
