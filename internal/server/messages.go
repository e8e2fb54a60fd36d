package server

import (
	"encoding/json"
	"errors"

	"card-czar/internal/game"

	"github.com/rs/zerolog/log"
)

const eventError = "error"

// inbound is a client frame. Fields beyond type depend on the action.
type inbound struct {
	Type     string   `json:"type"`
	RoomID   string   `json:"gameID"`
	Custom   bool     `json:"custom"`
	Username string   `json:"username"`
	Avatar   string   `json:"avatar"`
	Premium  bool     `json:"premium"`
	Cards    []string `json:"cards"`
	Card     string   `json:"card"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func (s *Server) dispatch(playerID string, raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.reject(playerID, "invalid message")
		return
	}
	var err error
	switch msg.Type {
	case "join":
		_, err = s.rooms.Join(msg.RoomID, msg.Custom, game.PlayerInfo{
			ID:      playerID,
			Name:    msg.Username,
			Avatar:  msg.Avatar,
			Premium: msg.Premium,
		})
	case "start":
		err = s.rooms.Start(playerID)
	case "pickCards":
		err = s.rooms.PickCards(playerID, msg.Cards)
	case "pickWinning":
		err = s.rooms.PickWinning(playerID, msg.Card)
	case "leave":
		err = s.rooms.Leave(playerID)
	default:
		s.reject(playerID, "unknown message type")
		return
	}
	if err != nil {
		log.Debug().Err(err).Str("player_id", playerID).Str("type", msg.Type).Msg("action rejected")
		s.reject(playerID, err.Error())
	}
}

func (s *Server) disconnected(playerID string) {
	if err := s.rooms.Leave(playerID); err != nil && !errors.Is(err, ErrNotInRoom) {
		log.Warn().Err(err).Str("player_id", playerID).Msg("leave on disconnect failed")
	}
}

func (s *Server) reject(playerID, message string) {
	if err := s.hub.SendToPlayer(playerID, eventError, errorPayload{Error: message}); err != nil {
		log.Debug().Err(err).Str("player_id", playerID).Msg("failed to send error")
	}
}
