package ws

import (
	"encoding/json"
	"log"

	socketio "github.com/googollee/go-socket.io"

	"a2a_registry/internal/model"
)

// handleRequestAgents handles the request:agents event. Clients send their
// last seen event id and receive incremental updates, or a pointer to the
// latest event id when they are too far behind to catch up.
func handleRequestAgents(s socketio.Conn, data interface{}) {
	var lastEventId int64 = 0
	if dataMap, ok := data.(map[string]interface{}); ok {
		if lastEventIdFloat, ok := dataMap["lastEventId"].(float64); ok {
			lastEventId = int64(lastEventIdFloat)
		}
	}

	if lastEventId > 0 && sendIncrementalUpdates(s, lastEventId) {
		return
	}

	// Too far behind (or first connect): hand back the current event id and
	// let the client load the full listing over the REST API.
	latestEventId, err := GetLatestEventId(model.EventTopicAgents)
	if err != nil {
		log.Printf("[WebSocket] Failed to query latest event id: %v", err)
		s.Emit("error", map[string]interface{}{
			"message": "Failed to query events",
		})
		return
	}
	s.Emit("agents:resync", map[string]interface{}{
		"lastEventId": latestEventId,
	})
}

// sendIncrementalUpdates sends incremental updates to the client
// Returns true if successful, false if the client should resync
func sendIncrementalUpdates(s socketio.Conn, lastEventId int64) bool {
	maxCount := 500
	events, err := GetIncrementalEvents(model.EventTopicAgents, lastEventId, maxCount)
	if err != nil {
		log.Printf("[WebSocket] Failed to query incremental events: %v", err)
		return false
	}

	// Too many events: cheaper for the client to reload the full list
	if len(events) >= maxCount {
		log.Printf("[WebSocket] Too many incremental events (%d), requesting resync", len(events))
		return false
	}

	for _, event := range events {
		var payload interface{}
		if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
			log.Printf("[WebSocket] Failed to unmarshal event payload: %v", err)
			continue
		}

		s.Emit("agents:update", map[string]interface{}{
			"eventId": event.ID,
			"type":    event.EventType,
			"data":    payload,
		})
	}

	return true
}
