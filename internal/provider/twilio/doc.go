// Package twilio is the call placement client: it places outbound calls,
// ends them, renders TwiML for the voice webhook, and validates phone
// numbers.
package twilio
