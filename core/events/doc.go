// Package events defines the typed turn playback event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - turn_state.*
//   - stream.*
//   - voice.*
//   - cue.*
//   - reveal.*
//
// turn_state events
//
//   - TurnStarted (turn_state.started): a scammer message was submitted and
//     the provisional record is shown.
//   - TurnStreaming (turn_state.streaming): the backend accepted the turn and
//     frames are being read.
//   - TurnRevealing (turn_state.revealing): the final victim line is being
//     revealed.
//   - TurnCommitted (turn_state.committed): the final state replaced the view.
//   - TurnAborted (turn_state.aborted): the turn failed or was reset, the last
//     committed state is shown.
//
// stream events
//
//   - StreamChunk (stream.chunk): append-only text delta of the victim line,
//     in stream order. Not validated, the committed text may differ.
//
// voice events
//
//   - VoiceStarted (voice.started): voice playback started for a line.
//   - VoiceSkipped (voice.skipped): the line is presented without voice.
//
// cue events
//
//   - CueScheduled (cue.scheduled): a sound effect was armed.
//   - CueFired (cue.fired): a sound effect started playing.
//
// reveal events
//
//   - RevealDrained (reveal.drained): every character of the line is visible.
package events
