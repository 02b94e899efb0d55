package twilio

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// MediaStreamTwiML renders the voice webhook response that connects the
// answered call to the media-stream server, tagging the stream with the
// call SID and dialed number.
func MediaStreamTwiML(websocketURL, callSID, phoneNumber string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Connect>
    <Stream url="%s">
      <Parameter name="callSid" value="%s" />
      <Parameter name="phoneNumber" value="%s" />
    </Stream>
  </Connect>
</Response>`, xmlEscape(websocketURL), xmlEscape(callSID), xmlEscape(phoneNumber))
}

// ErrorTwiML renders a spoken apology followed by a hangup, used when the
// voice webhook cannot proceed.
func ErrorTwiML(message string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say>%s</Say>
  <Hangup />
</Response>`, xmlEscape(message))
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
