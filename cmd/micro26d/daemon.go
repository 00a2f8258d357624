package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dougsko/micro26/pkg/client"
	"github.com/dougsko/micro26/pkg/config"
	"github.com/dougsko/micro26/pkg/engine"
)

// Micro26Daemon runs the core engine and the web control panel in front
// of its socket
type Micro26Daemon struct {
	config *config.Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	coreEngine   *engine.CoreEngine
	socketClient *client.SocketClient
	router       *gin.Engine
	webServer    *http.Server

	socketPath string
}

// NewMicro26Daemon creates a new daemon instance
func NewMicro26Daemon(cfg *config.Config) (*Micro26Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	socketPath := cfg.API.UnixSocket
	if socketPath == "" {
		socketPath = "/tmp/micro26.sock"
	}

	daemon := &Micro26Daemon{
		config:       cfg,
		ctx:          ctx,
		cancel:       cancel,
		socketPath:   socketPath,
		socketClient: client.NewSocketClient(socketPath),
		coreEngine:   engine.NewCoreEngine(cfg, socketPath),
	}

	if err := daemon.setupWebServer(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup web server: %w", err)
	}

	return daemon, nil
}

// Start starts the engine and, when enabled, the web server
func (d *Micro26Daemon) Start() error {
	log.Printf("Starting micro26d daemon...")

	if err := d.coreEngine.Start(); err != nil {
		return fmt.Errorf("failed to start core engine: %w", err)
	}

	// Wait a moment for socket to be ready
	time.Sleep(100 * time.Millisecond)

	if !d.socketClient.IsConnected() {
		d.coreEngine.Stop()
		return fmt.Errorf("failed to connect to core engine socket")
	}

	if !d.config.Web.Enabled {
		return nil
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		log.Printf("Starting web server on %s", d.webServer.Addr)
		if err := d.webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Web server error: %v", err)
		}
	}()

	return nil
}

// Stop stops the daemon gracefully
func (d *Micro26Daemon) Stop() error {
	log.Printf("Stopping daemon...")

	d.cancel()

	if d.webServer != nil && d.config.Web.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.webServer.Shutdown(ctx); err != nil {
			log.Printf("Web server shutdown error: %v", err)
		}
	}

	if d.coreEngine != nil {
		if err := d.coreEngine.Stop(); err != nil {
			log.Printf("Core engine shutdown error: %v", err)
		}
	}

	d.wg.Wait()

	log.Printf("Daemon stopped")
	return nil
}

// setupWebServer initializes the web server and routes
func (d *Micro26Daemon) setupWebServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/", d.handleHome)
	router.GET("/ws/status", d.handleStatusWebSocket)

	api := router.Group("/api/v1")
	{
		api.GET("/status", d.handleGetStatus)
		api.GET("/frequency", d.handleGetFrequency)
		api.PUT("/frequency", d.handleSetFrequency)
		api.POST("/tune", d.handleTune)
		api.PUT("/sideband", d.handleSetSideband)
		api.POST("/key", d.handlePressKey)
		api.GET("/memories", d.handleGetMemories)
		api.GET("/config", d.handleGetConfig)
		api.POST("/audio", d.handleAudio)
	}

	d.router = router
	d.webServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port),
		Handler: router,
	}

	return nil
}
