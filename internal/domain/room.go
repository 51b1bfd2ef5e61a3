package domain

// RoomID names a signaling room. Rooms backing a session reuse the session id.
type RoomID string
