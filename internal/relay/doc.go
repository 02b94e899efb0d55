// Package relay implements the in-process call event relay for the Call
// Relay Container.
//
// The Hub owns one topic per call identifier. Producers publish canonical
// events into a topic; every sink attached to that topic receives them in
// publish order. Topics are created lazily, torn down when the call reaches
// a terminal status and the last observer detaches, and reaped after an idle
// bound when no observer is attached and no terminal status was seen.
//
// There is no buffering or replay: an event published while a topic has no
// subscribers is dropped, and a subscriber only sees events published after
// its own attach (plus one synthetic connected event).
package relay
