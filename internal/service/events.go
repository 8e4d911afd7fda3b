package service

import (
	"encoding/json"

	ws "couponhub/internal/websocket"
	"couponhub/pkg/logger"
)

// Issue lifecycle event types pushed to connected clients.
const (
	EventIssueRequested = "ISSUE_REQUESTED"
	EventIssueApproved  = "ISSUE_APPROVED"
	EventIssueRejected  = "ISSUE_REJECTED"
	EventIssueCompleted = "ISSUE_COMPLETED"
)

// IssueEvent is the payload broadcast over the websocket hub.
type IssueEvent struct {
	Type    string `json:"type"`
	IssueID string `json:"issue_id"`
	Title   string `json:"title"`
	Status  string `json:"status"`
}

// publishIssueEvent pushes the event without blocking the request path; a
// stalled hub drops the event.
func publishIssueEvent(hub *ws.Hub, event IssueEvent) {
	if hub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case hub.Broadcast <- payload:
	default:
		logger.L().Warn("dropping issue event, hub busy")
	}
}
