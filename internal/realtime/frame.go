package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// frameType enumerates the socket.io 0.9 frame types used by Overleaf's
// realtime service. Frame types outside this set are ignored on receive.
type frameType int

const (
	frameDisconnect frameType = 0
	frameConnect    frameType = 1
	frameHeartbeat  frameType = 2
	frameMessage    frameType = 3
	frameJSON       frameType = 4
	frameEvent      frameType = 5
	frameACK        frameType = 6
	frameError      frameType = 7
)

// frame is one wire frame: "<type>:<id>:<endpoint>[:<data>]".
type frame struct {
	Type     frameType
	ID       string
	Endpoint string
	Data     string
}

// parseFrame decodes a raw text frame. The data segment may itself contain
// colons, so the raw string is split into at most four parts.
func parseFrame(raw string) (frame, error) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 3 {
		return frame{}, fmt.Errorf("malformed frame %q", raw)
	}
	if len(parts[0]) != 1 || parts[0][0] < '0' || parts[0][0] > '8' {
		return frame{}, fmt.Errorf("unknown frame type in %q", raw)
	}

	f := frame{
		Type:     frameType(parts[0][0] - '0'),
		ID:       parts[1],
		Endpoint: parts[2],
	}
	if len(parts) == 4 {
		f.Data = parts[3]
	}
	return f, nil
}

func (f frame) encode() string {
	s := fmt.Sprintf("%d:%s:%s", f.Type, f.ID, f.Endpoint)
	if f.Data != "" {
		s += ":" + f.Data
	}
	return s
}

// event is the JSON payload of a frameEvent frame.
type event struct {
	Name string            `json:"name"`
	Args []json.RawMessage `json:"args"`
}

func encodeEvent(name string, args ...any) (frame, error) {
	rawArgs := make([]json.RawMessage, 0, len(args))
	for _, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			return frame{}, fmt.Errorf("encode event arg: %w", err)
		}
		rawArgs = append(rawArgs, data)
	}

	data, err := json.Marshal(event{Name: name, Args: rawArgs})
	if err != nil {
		return frame{}, fmt.Errorf("encode event: %w", err)
	}

	return frame{Type: frameEvent, Data: string(data)}, nil
}
