package control

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/screenlink/screenlink/internal/logger"
)

// EmergencyRelease provides mechanisms to force the active screen
// back to primary outside the normal edge-crossing/hotkey paths: a
// SIGUSR1 handler, an input-inactivity timeout, and a file-based
// trigger for environments where signals are inconvenient to send.
type EmergencyRelease struct {
	server *Server

	activityTimeout time.Duration
	mu              sync.Mutex
	lastActivity    time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewEmergencyRelease creates a release handler bound to server.
func NewEmergencyRelease(server *Server) *EmergencyRelease {
	return &EmergencyRelease{
		server:          server,
		activityTimeout: 30 * time.Second,
		lastActivity:    time.Now(),
		stopChan:        make(chan struct{}),
	}
}

// Start begins monitoring for emergency release conditions.
func (er *EmergencyRelease) Start() {
	er.wg.Add(3)
	go er.handleSignals()
	go er.monitorActivity()
	go er.monitorFileTrigger()
	logger.Info("control: emergency release mechanisms activated")
}

// Stop halts all emergency monitoring goroutines.
func (er *EmergencyRelease) Stop() {
	er.stopOnce.Do(func() {
		close(er.stopChan)
	})
	er.wg.Wait()
}

// UpdateActivity records that a primary-driver event was just routed,
// resetting the inactivity timeout.
func (er *EmergencyRelease) UpdateActivity() {
	er.mu.Lock()
	er.lastActivity = time.Now()
	er.mu.Unlock()
}

func (er *EmergencyRelease) handleSignals() {
	defer er.wg.Done()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGUSR1)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			logger.Warn("control: SIGUSR1 received, triggering emergency release")
			er.triggerRelease("signal")
		case <-er.stopChan:
			return
		}
	}
}

func (er *EmergencyRelease) monitorActivity() {
	defer er.wg.Done()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if er.server.ActiveScreenName() == er.server.GetPrimaryScreenName() {
				continue
			}
			er.mu.Lock()
			idle := time.Since(er.lastActivity)
			er.mu.Unlock()
			if idle > er.activityTimeout {
				logger.Warnf("control: no activity for %v, triggering emergency release", er.activityTimeout)
				er.triggerRelease("timeout")
			}
		case <-er.stopChan:
			return
		}
	}
}

const releaseTriggerFile = "/tmp/screenlink-release"

func (er *EmergencyRelease) monitorFileTrigger() {
	defer er.wg.Done()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := os.Stat(releaseTriggerFile); err == nil {
				logger.Warn("control: release file detected, triggering emergency release")
				_ = os.Remove(releaseTriggerFile)
				er.triggerRelease("file")
			}
		case <-er.stopChan:
			return
		}
	}
}

func (er *EmergencyRelease) triggerRelease(reason string) {
	logger.Warnf("control: emergency release triggered (reason: %s)", reason)

	er.server.mu.Lock()
	er.server.engine.SetLockedToScreen(false)
	er.server.engine.ForceToPrimary()
	er.server.mu.Unlock()

	er.mu.Lock()
	er.lastActivity = time.Now()
	er.mu.Unlock()
}
