package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Command represents a command sent to the core engine
type Command struct {
	Type string                 `json:"type"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// Response represents a response from the core engine
type Response struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Memory is one memory slot as reported by MEMORIES
type Memory struct {
	Slot      int   `json:"slot"`
	Frequency int64 `json:"frequency"`
	Empty     bool  `json:"empty"`
}

// RadioStatus is the STATUS payload as seen by clients
type RadioStatus struct {
	Frequency   int64    `json:"frequency"`
	VFO         [2]int64 `json:"vfo"`
	ActiveVFO   int      `json:"active_vfo"`
	Sideband    string   `json:"sideband"`
	BFO         [2]int64 `json:"bfo"`
	Tone        string   `json:"tone"`
	AGC         string   `json:"agc"`
	Split       bool     `json:"split"`
	Memory      int      `json:"memory"`
	Threshold   int      `json:"scan_threshold"`
	Mode        string   `json:"mode"`
	Transmit    bool     `json:"transmit"`
	Signal      int      `json:"signal"`
	Supply      int      `json:"supply_tenths"`
	Temperature int      `json:"temperature"`
	Ticks       uint32   `json:"ticks"`
}

// ParseCommand parses a text command of the form TYPE[:args] into a
// Command. Numeric arguments are validated here so the engine only sees
// well-formed values.
func ParseCommand(text string) (*Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty command")
	}
	parts := strings.SplitN(text, ":", 2)

	cmd := &Command{
		Type: strings.ToUpper(parts[0]),
		Args: make(map[string]interface{}),
	}

	if len(parts) < 2 {
		switch cmd.Type {
		case CmdTune, CmdKey, CmdSideband:
			return nil, fmt.Errorf("%s requires an argument", cmd.Type)
		}
		// FREQUENCY alone is a query
		return cmd, nil
	}

	args := strings.TrimSpace(parts[1])
	switch cmd.Type {
	case CmdFrequency:
		// FREQUENCY:14200000
		hz, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid frequency %q: %w", args, err)
		}
		cmd.Args["frequency"] = hz

	case CmdTune:
		// TUNE:+500 or TUNE:-100
		offset, err := strconv.ParseInt(args, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid offset %q: %w", args, err)
		}
		cmd.Args["offset"] = offset

	case CmdKey:
		// KEY:select, KEY:back, KEY:long
		cmd.Args["key"] = strings.ToLower(args)

	case CmdSideband:
		// SIDEBAND:lsb
		cmd.Args["sideband"] = strings.ToUpper(args)
	}

	return cmd, nil
}

// String converts a Response to a JSON line
func (r *Response) String() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// NewSuccessResponse creates a successful response
func NewSuccessResponse(data map[string]interface{}) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err string) *Response {
	return &Response{
		Success: false,
		Error:   err,
	}
}

// Protocol commands
const (
	CmdStatus    = "STATUS"
	CmdFrequency = "FREQUENCY"
	CmdTune      = "TUNE"
	CmdSideband  = "SIDEBAND"
	CmdKey       = "KEY"
	CmdMemories  = "MEMORIES"
	CmdQuit      = "QUIT"
	CmdPing      = "PING"
)
