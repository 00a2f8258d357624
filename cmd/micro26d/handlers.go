package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gopkg.in/yaml.v2"

	"github.com/dougsko/micro26/pkg/engine"
)

// maxAudioBytes caps one POST /api/v1/audio body (one second at 48 kHz)
const maxAudioBytes = 96000

// statusInterval is how often /ws/status pushes the radio state
const statusInterval = 200 * time.Millisecond

// handleHome serves a one-line summary of the radio
func (d *Micro26Daemon) handleHome(c *gin.Context) {
	status, err := d.socketClient.GetStatus()
	if err != nil {
		c.String(http.StatusServiceUnavailable, "micro26d %s: %v\n", engine.Version, err)
		return
	}
	c.String(http.StatusOK, "micro26d %s: VFO %c %.2f kHz %s %s\n",
		engine.Version, 'A'+rune(status.ActiveVFO), float64(status.Frequency)/1000,
		status.Sideband, status.Mode)
}

// handleGetStatus returns the radio state via socket
func (d *Micro26Daemon) handleGetStatus(c *gin.Context) {
	status, err := d.socketClient.GetStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (d *Micro26Daemon) handleGetFrequency(c *gin.Context) {
	hz, err := d.socketClient.GetFrequency()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"frequency": hz})
}

// handleSetFrequency tunes the active VFO
func (d *Micro26Daemon) handleSetFrequency(c *gin.Context) {
	var req struct {
		Frequency int64 `json:"frequency" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := d.socketClient.SetFrequency(req.Frequency); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"frequency": req.Frequency,
	})
}

func (d *Micro26Daemon) handleTune(c *gin.Context) {
	var req struct {
		Offset int64 `json:"offset" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hz, err := d.socketClient.Tune(req.Offset)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"frequency": hz})
}

func (d *Micro26Daemon) handleSetSideband(c *gin.Context) {
	var req struct {
		Sideband string `json:"sideband" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := d.socketClient.SetSideband(req.Sideband); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sideband": req.Sideband})
}

// handlePressKey presses a front panel key, e.g. {"key": "back"} to open
// the menu
func (d *Micro26Daemon) handlePressKey(c *gin.Context) {
	var req struct {
		Key string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := d.socketClient.PressKey(req.Key); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": req.Key})
}

func (d *Micro26Daemon) handleGetMemories(c *gin.Context) {
	memories, err := d.socketClient.GetMemories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"memories": memories,
		"count":    len(memories),
	})
}

// handleGetConfig returns the current configuration
func (d *Micro26Daemon) handleGetConfig(c *gin.Context) {
	// Round trip through YAML so field names match the config file
	yamlData, err := yaml.Marshal(d.config)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to marshal config: %v", err),
		})
		return
	}

	var yamlConfig interface{}
	if err := yaml.Unmarshal(yamlData, &yamlConfig); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to unmarshal config: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, convertYamlToJson(yamlConfig))
}

// convertYamlToJson converts YAML map[interface{}]interface{} to JSON-compatible map[string]interface{}
func convertYamlToJson(i interface{}) interface{} {
	switch x := i.(type) {
	case map[interface{}]interface{}:
		m2 := map[string]interface{}{}
		for k, v := range x {
			m2[fmt.Sprint(k)] = convertYamlToJson(v)
		}
		return m2
	case []interface{}:
		for i, v := range x {
			x[i] = convertYamlToJson(v)
		}
	}
	return i
}

// handleAudio takes receiver audio as 16-bit little-endian mono PCM for
// the audio S-meter
func (d *Micro26Daemon) handleAudio(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAudioBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(body) > maxAudioBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio block too large"})
		return
	}
	if len(body)%2 != 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "odd number of audio bytes"})
		return
	}

	samples := make([]int16, len(body)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(body[2*i:]))
	}

	if err := d.coreEngine.FeedAudio(samples); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"samples": len(samples)})
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the panel is served from the radio itself
	},
}

// handleStatusWebSocket streams the radio state to a web panel
func (d *Micro26Daemon) handleStatusWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("Status WebSocket client connected")

	// Reads only to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		status := d.coreEngine.Controller().Status()
		if err := conn.WriteJSON(gin.H{"type": "status", "status": status}); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}

		select {
		case <-ticker.C:
		case <-closed:
			log.Printf("Status WebSocket client disconnected")
			return
		case <-d.ctx.Done():
			return
		}
	}
}
