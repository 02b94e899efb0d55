// Package event defines the canonical call event model for the Call Relay
// Container.
//
// Webhook producers (telephony status callbacks, voice-AI conversation
// events) are normalized into these types before they enter the relay, and
// observer connections receive them serialized in the wire envelope.
package event
