// Package events defines the typed speech pipeline event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - speech_output.*
//   - playback.*
//   - user_input.*
//
// speech_output events
//
//   - SpeechTextStarted (speech_output.text_started): the outgoing text
//     stream began producing characters.
//   - CharacterRevealed (speech_output.character_revealed): a single
//     character of outgoing text became available, in stream order.
//   - SpeechTextEnded (speech_output.text_ended): the outgoing text stream
//     is exhausted and no further characters will be revealed.
//
// playback events
//
//   - PlaybackStarted (playback.started): the first synthesized audio
//     reached the output device.
//   - PlaybackEnded (playback.ended): playback finished or was stopped;
//     fires exactly once per speaking session, even when no audio was
//     ever played.
//
// user_input events
//
//   - UserSpeechDetected (user_input.speech_detected): the transcription
//     service detected the start of user speech.
//   - UserTranscriptReady (user_input.transcript_ready): a finalized
//     transcript segment for the detected speech is available.
package events
