package service

// Broadcaster pushes engine events to monitoring clients. Implemented by the
// WebSocket hub; services treat it as fire-and-forget.
type Broadcaster interface {
	BroadcastToSurvey(surveyID string, event string, payload interface{})
}
