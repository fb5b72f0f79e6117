package dto

// ChatRequest is a free-text scheduling utterance submitted by a user.
type ChatRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// SessionRequestCreate is a structured session request: a student asks for a
// slot by subject and time instead of phrasing it conversationally.
type SessionRequestCreate struct {
	Subject   string `json:"subject" validate:"required,min=1,max=255"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04:05"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04:05"`
}

// SessionRequestResult carries the backend's acknowledgement of a structured
// session request.
type SessionRequestResult struct {
	Message string `json:"message"`
}

// ChatResponse relays the scheduling backend's reply. Fallback is true when
// the backend could not be reached and a locally generated message is served
// instead.
type ChatResponse struct {
	Reply    string `json:"response"`
	Fallback bool   `json:"fallback,omitempty"`
}
