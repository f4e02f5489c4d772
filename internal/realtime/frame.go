package realtime

import "encoding/json"

// EventJoin is sent by the client after connecting to enter a room.
const EventJoin = "join"

// Frame is the JSON envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinData is the payload of a join frame.
type JoinData struct {
	Room string `json:"room"`
}

// NewFrame marshals data into a frame.
func NewFrame(event string, data any) (Frame, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Event: event, Data: raw}, nil
}
