// Package call orchestrates outbound call control: placing and ending
// telephony calls and handing each placed call to the voice agent. Every
// action is audited and surfaced on the relay as events.
package call
