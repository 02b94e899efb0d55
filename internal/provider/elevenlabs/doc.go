// Package elevenlabs registers calls with the conversational voice agent so
// its webhooks can be routed back to the right call.
package elevenlabs
