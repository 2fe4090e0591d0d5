package models

import (
	"errors"
	"time"
)

// ServerStatus is the normalized outcome of one probe of the monitored server.
// Exactly one branch is populated: the online fields when Online is true,
// Error when it is false. Use OnlineStatus and OfflineStatus to build one.
type ServerStatus struct {
	Target string `json:"target"`
	Online bool   `json:"online"`

	MOTD          *string  `json:"motd,omitempty"`
	PlayersOnline *int     `json:"players_online,omitempty"`
	PlayersMax    *int     `json:"players_max,omitempty"`
	LatencyMs     *float64 `json:"latency_ms,omitempty"`

	Error string `json:"error,omitempty"`

	CheckedAt time.Time `json:"checked_at"`
}

// unknownError is used when a failure carries no description of its own.
const unknownError = "unknown error"

// OnlineStatus builds the online branch of a ServerStatus.
func OnlineStatus(target, motd string, playersOnline, playersMax int, latencyMs float64) ServerStatus {
	if playersOnline < 0 {
		playersOnline = 0
	}
	if playersMax < 0 {
		playersMax = 0
	}
	if latencyMs < 0 {
		latencyMs = 0
	}
	return ServerStatus{
		Target:        target,
		Online:        true,
		MOTD:          &motd,
		PlayersOnline: &playersOnline,
		PlayersMax:    &playersMax,
		LatencyMs:     &latencyMs,
		CheckedAt:     time.Now().UTC(),
	}
}

// OfflineStatus builds the offline branch of a ServerStatus.
// An empty message is replaced so the error text is never blank.
func OfflineStatus(target, message string) ServerStatus {
	if message == "" {
		message = unknownError
	}
	return ServerStatus{
		Target:    target,
		Online:    false,
		Error:     message,
		CheckedAt: time.Now().UTC(),
	}
}

// Validate reports whether exactly one branch of the record is populated.
func (s ServerStatus) Validate() error {
	onlineFields := s.MOTD != nil || s.PlayersOnline != nil || s.PlayersMax != nil || s.LatencyMs != nil
	allOnline := s.MOTD != nil && s.PlayersOnline != nil && s.PlayersMax != nil && s.LatencyMs != nil

	if s.Online {
		if !allOnline {
			return errors.New("online status is missing fields")
		}
		if s.Error != "" {
			return errors.New("online status carries an error")
		}
		return nil
	}
	if onlineFields {
		return errors.New("offline status carries online fields")
	}
	if s.Error == "" {
		return errors.New("offline status has no error")
	}
	return nil
}

// SameState compares two records ignoring latency and check time.
func (s ServerStatus) SameState(o ServerStatus) bool {
	if s.Target != o.Target || s.Online != o.Online || s.Error != o.Error {
		return false
	}
	return eqPtr(s.MOTD, o.MOTD) && eqPtr(s.PlayersOnline, o.PlayersOnline) && eqPtr(s.PlayersMax, o.PlayersMax)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
