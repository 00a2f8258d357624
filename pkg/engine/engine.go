package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/dougsko/micro26/pkg/band"
	"github.com/dougsko/micro26/pkg/config"
	"github.com/dougsko/micro26/pkg/eeprom"
	"github.com/dougsko/micro26/pkg/hardware"
	"github.com/dougsko/micro26/pkg/irq"
	"github.com/dougsko/micro26/pkg/logging"
	"github.com/dougsko/micro26/pkg/protocol"
	"github.com/dougsko/micro26/pkg/radio"
	"github.com/dougsko/micro26/pkg/synth"
	"github.com/dougsko/micro26/pkg/tuning"
)

// Version is reported by STATUS
const Version = "0.3.0"

const (
	tickPeriod    = time.Second / tuning.TickRate
	loopPeriod    = 10 * time.Millisecond
	encoderPeriod = time.Millisecond
	submitTimeout = 2 * time.Second
)

// CoreEngine runs the control loop on the host and serves it over a Unix
// socket
type CoreEngine struct {
	config     *config.Config
	socketPath string
	listener   net.Listener
	running    bool
	mutex      sync.RWMutex
	startTime  time.Time

	hardwareManager *hardware.HardwareManager
	section         irq.Section
	device          eeprom.Device
	store           *eeprom.Store
	encoder         *tuning.Encoder
	smeter          *hardware.AudioSMeter
	controller      *radio.Controller

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoreEngine creates a new core engine
func NewCoreEngine(cfg *config.Config, socketPath string) *CoreEngine {
	hardwareConfig := hardware.HardwareConfig{
		EnableGPIO:     cfg.Hardware.EnableGPIO,
		GPIORoot:       cfg.Hardware.GPIORoot,
		TonePin:        cfg.Hardware.TonePin,
		AGCPin:         cfg.Hardware.AGCPin,
		TXPin:          cfg.Hardware.TXPin,
		OLEDI2CAddress: cfg.Hardware.OLEDI2CAddress,
		OLEDWidth:      cfg.Hardware.OLEDWidth,
		OLEDHeight:     cfg.Hardware.OLEDHeight,
		KeyChannel:     cfg.Hardware.KeyChannel,
		KeyLevels:      cfg.Hardware.KeyLevels,
		KeyTolerance:   cfg.Hardware.KeyTolerance,
	}
	if cfg.Hardware.LongPress > 0 {
		hardwareConfig.LongPress = cfg.Hardware.LongPress
	}

	e := &CoreEngine{
		config:          cfg,
		socketPath:      socketPath,
		startTime:       time.Now(),
		hardwareManager: hardware.NewHardwareManager(hardwareConfig),
	}
	e.encoder = tuning.NewEncoder(&e.section)
	if cfg.Hardware.AudioSMeter {
		e.smeter = hardware.NewAudioSMeter(cfg.Hardware.AudioRate, 1024)
	}
	return e
}

// UseDevices installs hardware before Start, replacing the defaults
func (e *CoreEngine) UseDevices(d hardware.Devices) {
	e.hardwareManager.UseDevices(d)
}

// Start brings up the hardware, boots the radio and starts the socket
// server
func (e *CoreEngine) Start() error {
	if err := e.hardwareManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize hardware manager: %w", err)
	}

	dev, err := eeprom.Open(e.config.Storage.Backend, e.config.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", e.config.Storage.Backend, err)
	}
	store, err := eeprom.NewStore(dev, &e.section)
	if err != nil {
		dev.Close()
		return err
	}
	e.device = dev
	e.store = store
	logging.Infof("engine", "settings on %s storage %s", e.config.Storage.Backend, e.config.Storage.Path)

	preset := e.config.IF()
	si := synth.NewSi5351(e.hardwareManager.Bus(), synth.Config{
		Address:   byte(e.config.Synth.I2CAddress),
		Reference: e.config.Synth.Crystal,
		PLLRatio:  e.config.Synth.PLLRatio,
	})

	var meters radio.Meters = hardware.NewMeterReader(e.hardwareManager.ADC())
	if e.smeter != nil {
		meters = audioMeters{MeterReader: hardware.NewMeterReader(e.hardwareManager.ADC()), audio: e.smeter}
	}

	e.controller = radio.NewController(si, store, e.hardwareManager, meters, e.encoder,
		e.hardwareManager.Keypad(), e.hardwareManager.Display(), radio.Options{
			IF:    band.Frequency(preset.IF),
			BFO:   [2]band.Frequency{band.Frequency(preset.LOUSB), band.Frequency(preset.LOLSB)},
			Pause: func() { time.Sleep(loopPeriod) },
		})
	logging.Infof("engine", "IF filter %s", preset.Name)

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.wg.Add(1)
	go e.tickSource(ctx)
	if pins := e.config.Hardware.EncoderPins; len(pins) == 2 {
		e.wg.Add(1)
		go e.encoderPoller(ctx, pins[0], pins[1])
	}

	if err := e.controller.Boot(ctx); err != nil {
		cancel()
		e.wg.Wait()
		return fmt.Errorf("failed to boot radio: %w", err)
	}

	e.mutex.Lock()
	e.running = true
	e.mutex.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Errorf("engine", "control loop stopped: %v", err)
		}
	}()

	// Remove existing socket file
	os.Remove(e.socketPath)

	listener, err := net.Listen("unix", e.socketPath)
	if err != nil {
		e.Stop()
		return fmt.Errorf("failed to create Unix socket: %w", err)
	}
	e.listener = listener

	// Set socket permissions (readable/writable by owner and group)
	if err := os.Chmod(e.socketPath, 0660); err != nil {
		log.Printf("Warning: failed to set socket permissions: %v", err)
	}

	log.Printf("Core engine listening on %s", e.socketPath)

	go e.acceptConnections()

	return nil
}

// Stop stops the control loop and the socket server
func (e *CoreEngine) Stop() error {
	e.mutex.Lock()
	e.running = false
	e.mutex.Unlock()

	if e.listener != nil {
		e.listener.Close()
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()

	if e.store != nil {
		if err := e.store.Close(); err != nil {
			log.Printf("Warning: failed to close storage: %v", err)
		}
	}

	if e.hardwareManager != nil {
		e.hardwareManager.Close()
	}

	// Clean up socket file
	os.Remove(e.socketPath)

	return nil
}

func (e *CoreEngine) isRunning() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.running
}

// Controller returns the radio controller. Nil before Start.
func (e *CoreEngine) Controller() *radio.Controller {
	return e.controller
}

// FeedAudio passes receiver audio to the audio S-meter when enabled
func (e *CoreEngine) FeedAudio(samples []int16) error {
	if e.smeter == nil {
		return fmt.Errorf("audio S-meter is disabled")
	}
	e.smeter.ProcessSamples(samples)
	return nil
}

// Memories reads all memory slots. Store reads run in the interrupt
// section so this is safe beside the control loop.
func (e *CoreEngine) Memories() ([]protocol.Memory, error) {
	if e.store == nil {
		return nil, fmt.Errorf("engine not started")
	}
	memories := make([]protocol.Memory, 0, eeprom.MemorySlots)
	for i := 0; i < eeprom.MemorySlots; i++ {
		ch, err := e.store.LoadMemory(i)
		if err != nil {
			return nil, err
		}
		memories = append(memories, protocol.Memory{
			Slot:      i,
			Frequency: int64(ch.Frequency),
			Empty:     ch.Empty,
		})
	}
	return memories, nil
}

// tickSource stands in for the 10 Hz timer interrupt
func (e *CoreEngine) tickSource(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.encoder.OnTick()
		case <-ctx.Done():
			return
		}
	}
}

// encoderPoller samples the two encoder lines and raises an edge whenever
// they change
func (e *CoreEngine) encoderPoller(ctx context.Context, pinA, pinB int) {
	defer e.wg.Done()

	gpio := e.hardwareManager.GPIO()
	ticker := time.NewTicker(encoderPeriod)
	defer ticker.Stop()

	var last uint8 = 0xFF
	for {
		select {
		case <-ticker.C:
			a, errA := gpio.GetPin(pinA)
			b, errB := gpio.GetPin(pinB)
			if errA != nil || errB != nil {
				continue
			}
			var pins uint8
			if a {
				pins |= 2
			}
			if b {
				pins |= 1
			}
			if pins != last {
				last = pins
				e.encoder.OnEdge(pins)
			}
		case <-ctx.Done():
			return
		}
	}
}

// acceptConnections accepts and handles socket connections
func (e *CoreEngine) acceptConnections() {
	for e.isRunning() {
		conn, err := e.listener.Accept()
		if err != nil {
			if e.isRunning() {
				log.Printf("Socket accept error: %v", err)
			}
			continue
		}

		go e.handleConnection(conn)
	}
}

// handleConnection handles a single socket connection
func (e *CoreEngine) handleConnection(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			response := protocol.NewErrorResponse(fmt.Sprintf("parse error: %v", err))
			conn.Write([]byte(response.String() + "\n"))
			continue
		}

		response := e.HandleCommand(cmd)
		conn.Write([]byte(response.String() + "\n"))

		// Close connection after QUIT command
		if cmd.Type == protocol.CmdQuit {
			break
		}
	}
}

// HandleCommand processes a single command
func (e *CoreEngine) HandleCommand(cmd *protocol.Command) *protocol.Response {
	if e.controller == nil {
		return protocol.NewErrorResponse("engine not started")
	}

	switch cmd.Type {
	case protocol.CmdStatus:
		return e.handleStatus()

	case protocol.CmdFrequency:
		return e.handleFrequency(cmd)

	case protocol.CmdTune:
		offset, _ := cmd.Args["offset"].(int64)
		return e.submit(radio.Command{Kind: radio.TuneBy, Frequency: band.Frequency(offset)})

	case protocol.CmdSideband:
		name, _ := cmd.Args["sideband"].(string)
		sb, ok := band.ParseSideband(name)
		if !ok {
			return protocol.NewErrorResponse(fmt.Sprintf("unknown sideband: %s", name))
		}
		return e.submit(radio.Command{Kind: radio.SetSideband, Sideband: sb})

	case protocol.CmdKey:
		return e.handleKey(cmd)

	case protocol.CmdMemories:
		memories, err := e.Memories()
		if err != nil {
			return protocol.NewErrorResponse(err.Error())
		}
		return protocol.NewSuccessResponse(map[string]interface{}{
			"memories": memories,
		})

	case protocol.CmdPing:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"pong": time.Now().Unix(),
		})

	case protocol.CmdQuit:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"message": "goodbye",
		})

	default:
		return protocol.NewErrorResponse(fmt.Sprintf("unknown command: %s", cmd.Type))
	}
}

// handleStatus returns the radio state and daemon info
func (e *CoreEngine) handleStatus() *protocol.Response {
	data := map[string]interface{}{
		"status":  e.controller.Status(),
		"uptime":  time.Since(e.startTime).Round(time.Second).String(),
		"version": Version,
	}

	if e.hardwareManager.IsInitialized() {
		hw := e.hardwareManager.GetConfig()
		data["hardware"] = map[string]interface{}{
			"initialized": true,
			"gpio":        hw.EnableGPIO,
			"tone_pin":    hw.TonePin,
			"agc_pin":     hw.AGCPin,
		}
	}

	return protocol.NewSuccessResponse(data)
}

// handleFrequency reports the frequency, or sets it when one is given
func (e *CoreEngine) handleFrequency(cmd *protocol.Command) *protocol.Response {
	hz, ok := cmd.Args["frequency"].(int64)
	if !ok {
		return protocol.NewSuccessResponse(map[string]interface{}{
			"frequency": e.controller.Status().Frequency,
		})
	}
	return e.submit(radio.Command{Kind: radio.SetFrequency, Frequency: band.Frequency(hz)})
}

func (e *CoreEngine) handleKey(cmd *protocol.Command) *protocol.Response {
	name, _ := cmd.Args["key"].(string)
	key, ok := hardware.ParseKey(name)
	if !ok || key == hardware.KeyNone {
		return protocol.NewErrorResponse(fmt.Sprintf("unknown key: %s", name))
	}
	if err := e.controller.PressKey(key); err != nil {
		return protocol.NewErrorResponse(err.Error())
	}
	return protocol.NewSuccessResponse(map[string]interface{}{
		"key": key.String(),
	})
}

// submit hands a request to the control loop and reports the frequency it
// ends up on
func (e *CoreEngine) submit(cmd radio.Command) *protocol.Response {
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	if err := e.controller.Submit(ctx, cmd); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return protocol.NewErrorResponse("radio busy (menu or scan open)")
		}
		return protocol.NewErrorResponse(err.Error())
	}
	st := e.controller.Status()
	return protocol.NewSuccessResponse(map[string]interface{}{
		"frequency": st.Frequency,
		"sideband":  st.Sideband,
	})
}

// audioMeters reads the signal strength from receiver audio and everything
// else from the ADC
type audioMeters struct {
	*hardware.MeterReader
	audio *hardware.AudioSMeter
}

func (m audioMeters) SignalStrength() int {
	return m.audio.SignalStrength()
}
