// Package ingest normalizes provider webhook payloads into canonical call
// events and hands them to the relay.
//
// Two producer shapes are supported: the telephony status callback
// (form-encoded, Twilio's CallSid/CallStatus fields) and the voice-AI
// conversation webhook (JSON, ElevenLabs conversational events). Malformed
// input is rejected at this boundary and never reaches the relay; event
// types the relay has no use for are logged and dropped, because webhook
// producers cannot act on a relay-side rejection.
package ingest
