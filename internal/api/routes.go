package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/call-relay/crc/internal/auth"
	"github.com/call-relay/crc/internal/event"
	"github.com/call-relay/crc/internal/provider/twilio"
)

// RegisterRoutes registers all v1 endpoints.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	apiV1 := "/api/v1"

	// Health endpoint (no auth required)
	mux.HandleFunc(apiV1+"/health", s.handleHealth)

	// Provider webhooks are always unprotected; the vendors cannot carry
	// our bearer tokens.
	mux.HandleFunc(apiV1+"/twilio/status", s.handleTwilioStatus)
	mux.HandleFunc(apiV1+"/twilio/voice", s.handleTwilioVoice)
	mux.HandleFunc(apiV1+"/elevenlabs/webhook", s.handleVoiceAgentWebhook)

	// If no auth middleware, register routes without protection
	if s.authMiddleware == nil {
		mux.HandleFunc(apiV1+"/calls", s.handleInitiateCall)
		mux.HandleFunc(apiV1+"/calls/end", s.handleEndCall)
		mux.HandleFunc(apiV1+"/calls/status", s.handleCallStatus)
		mux.HandleFunc(apiV1+"/calls/events", s.handleCallEvents)
		mux.HandleFunc(apiV1+"/events", s.handlePushEvent)
		mux.HandleFunc(apiV1+"/stats", s.handleStats)
		return
	}

	protect := func(scope string, next http.HandlerFunc) http.HandlerFunc {
		return s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(scope)(next))
	}

	mux.HandleFunc(apiV1+"/calls", protect(auth.ScopeControl, s.handleInitiateCall))
	mux.HandleFunc(apiV1+"/calls/end", protect(auth.ScopeControl, s.handleEndCall))
	mux.HandleFunc(apiV1+"/calls/status", protect(auth.ScopeObserve, s.handleCallStatus))
	mux.HandleFunc(apiV1+"/calls/events", protect(auth.ScopeObserve, s.handleCallEvents))
	mux.HandleFunc(apiV1+"/events", protect(auth.ScopeIngest, s.handlePushEvent))
	mux.HandleFunc(apiV1+"/stats", protect(auth.ScopeObserve, s.handleStats))
}

// handleInitiateCall handles POST /calls
func (s *Server) handleInitiateCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	// Parse request (strict JSON)
	var req struct {
		PhoneNumber  string `json:"phoneNumber"`
		SystemPrompt string `json:"systemPrompt,omitempty"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}
	if req.PhoneNumber == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "phoneNumber is required", nil)
		return
	}

	callSID, err := s.control.Initiate(r.Context(), req.PhoneNumber, req.SystemPrompt)
	if err != nil {
		WriteAPIError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{
		"callSid": callSID,
		"status":  string(event.StatusInitiating),
	})
}

// handleEndCall handles POST /calls/end
func (s *Server) handleEndCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	var req struct {
		CallSID string `json:"callSid"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}

	if err := s.control.End(r.Context(), req.CallSID); err != nil {
		WriteAPIError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"callSid": req.CallSID})
}

// handleCallStatus handles GET /calls/status?callSid=
func (s *Server) handleCallStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	callSID := r.URL.Query().Get("callSid")
	if callSID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "callSid is required", nil)
		return
	}

	status, ok := s.relay.Snapshot(event.CallID(callSID))
	if !ok {
		WriteAPIError(w, ErrNotFound)
		return
	}

	WriteSuccess(w, map[string]string{
		"callSid": callSID,
		"status":  string(status),
	})
}

// handleCallEvents handles GET /calls/events?callSid= (SSE)
func (s *Server) handleCallEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	callSID := r.URL.Query().Get("callSid")
	if callSID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "callSid is required", nil)
		return
	}

	// Serve only fails before the stream starts, so the envelope is still
	// writable here.
	if err := s.stream.Serve(w, r, event.CallID(callSID)); err != nil {
		WriteAPIError(w, err)
	}
}

// handlePushEvent handles POST /events
func (s *Server) handlePushEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	var req struct {
		CallID string          `json:"callId"`
		Type   string          `json:"type"`
		Data   json.RawMessage `json:"data,omitempty"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}

	if err := s.ingest.Push(req.CallID, req.Type, req.Data); err != nil {
		WriteAPIError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"callId": req.CallID})
}

// handleTwilioStatus handles POST /twilio/status (form-encoded webhook)
func (s *Server) handleTwilioStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed form payload", nil)
		return
	}

	callSID, err := s.ingest.TwilioStatus(r.PostForm)
	if err != nil {
		WriteAPIError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"callSid": string(callSID)})
}

// handleTwilioVoice handles POST /twilio/voice. The answer is TwiML telling
// the telephony leg to open a media stream toward the voice agent bridge.
func (s *Server) handleTwilioVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	if err := r.ParseForm(); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed form payload", nil)
		return
	}
	callSID := r.PostForm.Get("CallSid")
	phoneNumber := r.PostForm.Get("To")

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	if s.cfg.WebSocketServerURL == "" {
		// Still 200: the caller hears the message instead of dead air.
		_, _ = io.WriteString(w, twilio.ErrorTwiML("The voice service is not configured. Goodbye."))
		return
	}
	_, _ = io.WriteString(w, twilio.MediaStreamTwiML(s.cfg.WebSocketServerURL, callSID, phoneNumber))
}

// handleVoiceAgentWebhook handles POST /elevenlabs/webhook
func (s *Server) handleVoiceAgentWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Unreadable body", nil)
		return
	}

	callSID, err := s.ingest.VoiceAgentEvent(body)
	if err != nil {
		WriteAPIError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"callSid": string(callSID)})
}

// handleStats handles GET /stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	WriteSuccess(w, s.relay.Stats())
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	uptime := 0.0
	if !s.startTime.IsZero() {
		uptime = time.Since(s.startTime).Seconds()
	}

	subsystems := map[string]bool{
		"relay":   s.relay != nil,
		"ingest":  s.ingest != nil,
		"control": s.control != nil,
		"stream":  s.stream != nil,
	}

	overallStatus := "ok"
	for _, up := range subsystems {
		if !up {
			overallStatus = "degraded"
		}
	}

	health := map[string]interface{}{
		"status":     overallStatus,
		"uptimeSec":  uptime,
		"version":    "1.0.0",
		"subsystems": subsystems,
	}

	if overallStatus == "ok" {
		WriteSuccess(w, health)
	} else {
		WriteError(w, http.StatusServiceUnavailable, "SERVICE_DEGRADED",
			"One or more subsystems are unavailable", health)
	}
}

// decodeStrict decodes the body into dst rejecting unknown fields and
// trailing data. It writes the error response itself and reports success.
func decodeStrict(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON or unknown fields", nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Trailing data after JSON object", nil)
		return false
	}
	return true
}
