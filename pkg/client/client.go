package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/dougsko/micro26/pkg/protocol"
)

// SocketClient represents a client connection to the core engine
type SocketClient struct {
	socketPath string
	timeout    time.Duration
}

// NewSocketClient creates a new socket client
func NewSocketClient(socketPath string) *SocketClient {
	return &SocketClient{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// SendCommand sends a command and returns the response
func (c *SocketClient) SendCommand(cmd string) (*protocol.Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		return nil, fmt.Errorf("send error: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return nil, fmt.Errorf("no response received")
	}

	var response protocol.Response
	if err := json.Unmarshal(scanner.Bytes(), &response); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	return &response, nil
}

// call sends cmd and fails on an error response
func (c *SocketClient) call(what, cmd string) (*protocol.Response, error) {
	resp, err := c.SendCommand(cmd)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%s error: %s", what, resp.Error)
	}
	return resp, nil
}

// field re-decodes one entry of the response data into out
func field(resp *protocol.Response, key string, out interface{}) error {
	value, ok := resp.Data[key]
	if !ok {
		return fmt.Errorf("%s not found in response", key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return nil
}

// GetStatus gets the radio state
func (c *SocketClient) GetStatus() (*protocol.RadioStatus, error) {
	resp, err := c.call("status", protocol.CmdStatus)
	if err != nil {
		return nil, err
	}

	var status protocol.RadioStatus
	if err := field(resp, "status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetFrequency returns the active VFO frequency
func (c *SocketClient) GetFrequency() (int64, error) {
	resp, err := c.call("frequency", protocol.CmdFrequency)
	if err != nil {
		return 0, err
	}
	var hz int64
	err = field(resp, "frequency", &hz)
	return hz, err
}

// SetFrequency tunes the active VFO to an in-band frequency
func (c *SocketClient) SetFrequency(hz int64) error {
	_, err := c.call("frequency", fmt.Sprintf("%s:%d", protocol.CmdFrequency, hz))
	return err
}

// Tune moves the active VFO and returns the new frequency
func (c *SocketClient) Tune(offset int64) (int64, error) {
	resp, err := c.call("tune", fmt.Sprintf("%s:%+d", protocol.CmdTune, offset))
	if err != nil {
		return 0, err
	}
	var hz int64
	err = field(resp, "frequency", &hz)
	return hz, err
}

// SetSideband selects USB or LSB
func (c *SocketClient) SetSideband(sideband string) error {
	_, err := c.call("sideband", fmt.Sprintf("%s:%s", protocol.CmdSideband, sideband))
	return err
}

// PressKey presses a front panel key: select, back or long
func (c *SocketClient) PressKey(key string) error {
	_, err := c.call("key", fmt.Sprintf("%s:%s", protocol.CmdKey, key))
	return err
}

// GetMemories lists the memory slots
func (c *SocketClient) GetMemories() ([]protocol.Memory, error) {
	resp, err := c.call("memories", protocol.CmdMemories)
	if err != nil {
		return nil, err
	}
	var memories []protocol.Memory
	if err := field(resp, "memories", &memories); err != nil {
		return nil, err
	}
	return memories, nil
}

// Ping tests the connection
func (c *SocketClient) Ping() error {
	_, err := c.call("ping", protocol.CmdPing)
	return err
}

// IsConnected tests if the daemon is reachable
func (c *SocketClient) IsConnected() bool {
	return c.Ping() == nil
}
