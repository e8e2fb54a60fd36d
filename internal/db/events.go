package db

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventLog appends room broadcasts to the room_events table.
type EventLog struct {
	conn *gorm.DB
}

func NewEventLog(conn *gorm.DB) *EventLog {
	return &EventLog{conn: conn}
}

func (l *EventLog) Append(ctx context.Context, roomID, eventType string, payload any) error {
	if l == nil || l.conn == nil {
		return errors.New("event log has no connection")
	}
	record, err := newRoomEvent(roomID, eventType, payload)
	if err != nil {
		return err
	}
	return l.conn.WithContext(ctx).Create(&record).Error
}

// Recent returns the latest events for a room, newest first.
func (l *EventLog) Recent(ctx context.Context, roomID string, limit int) ([]RoomEvent, error) {
	if l == nil || l.conn == nil {
		return nil, errors.New("event log has no connection")
	}
	var records []RoomEvent
	query := l.conn.WithContext(ctx).Where("room_id = ?", roomID).Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func newRoomEvent(roomID, eventType string, payload any) (RoomEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return RoomEvent{}, err
	}
	return RoomEvent{
		RoomID:  roomID,
		Type:    eventType,
		Payload: datatypes.JSON(raw),
	}, nil
}
