package http

import "net/http"

// SpeechUnavailable answers the speech endpoints of a backend without a
// speech provider.
func SpeechUnavailable(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotImplemented, "speech provider not configured")
}
