package ws

import (
	"encoding/json"
	"fmt"
	"log"

	"a2a_registry/internal/db"
	"a2a_registry/internal/model"
)

// PublishRegistryEvent persists a registry event and broadcasts it to all
// connected clients.
// topic: "agents" or "peers"
// eventType: "add", "update", "delete", "sync"
func PublishRegistryEvent(topic, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[WebSocket] Failed to marshal payload: %v", err)
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := model.RegistryEvent{
		Topic:     topic,
		EventType: eventType,
		Payload:   string(payloadJSON),
	}

	if err := db.GetDB().Create(&event).Error; err != nil {
		log.Printf("[WebSocket] Failed to write event to database: %v", err)
		return fmt.Errorf("failed to write event to database: %w", err)
	}

	// Broadcast failure should not affect the main flow
	broadcastData := map[string]interface{}{
		"eventId": event.ID,
		"type":    eventType,
		"data":    payload,
	}
	BroadcastToAll(topic+":update", broadcastData)

	return nil
}

// GetIncrementalEvents retrieves events with id > lastEventId on one topic,
// limited to maxCount
func GetIncrementalEvents(topic string, lastEventId int64, maxCount int) ([]model.RegistryEvent, error) {
	var events []model.RegistryEvent

	err := db.GetDB().
		Where("topic = ? AND id > ?", topic, lastEventId).
		Order("id ASC").
		Limit(maxCount).
		Find(&events).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query incremental events: %w", err)
	}

	return events, nil
}

// GetLatestEventId retrieves the latest event ID for one topic
func GetLatestEventId(topic string) (int64, error) {
	var event model.RegistryEvent

	err := db.GetDB().
		Where("topic = ?", topic).
		Order("id DESC").
		Limit(1).
		First(&event).Error

	if err != nil {
		// If no events found, return 0
		if err.Error() == "record not found" {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query latest event: %w", err)
	}

	return event.ID, nil
}
