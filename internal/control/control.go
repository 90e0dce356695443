// Package control implements the control surface: the external
// orchestrator API (open/run/quit/shutdown/setConfig/getConfig) and
// the single coarse-grained server mutex that serializes every call
// into the registry, clipboard manager, switch engine, and router.
package control

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/screenlink/screenlink/internal/clipboard"
	"github.com/screenlink/screenlink/internal/config"
	"github.com/screenlink/screenlink/internal/httpstatus"
	"github.com/screenlink/screenlink/internal/logger"
	"github.com/screenlink/screenlink/internal/primary"
	"github.com/screenlink/screenlink/internal/router"
	"github.com/screenlink/screenlink/internal/screen"
	"github.com/screenlink/screenlink/internal/switcher"
	"github.com/screenlink/screenlink/internal/topology"
	"github.com/screenlink/screenlink/internal/transport"
	"github.com/screenlink/screenlink/internal/wire"
)

// Server is the coordination engine's single entry point. It owns the
// lock that every other package in this server documents as "held by
// the caller": clipboard manager, switch engine, and router all
// assume mutual exclusion provided here. The registry additionally
// guards its own map with a separate lock.
type Server struct {
	mu sync.Mutex

	cfg *config.Config

	driver   primary.Driver
	registry *screen.Registry
	clips    *clipboard.Manager
	engine   *switcher.Engine
	router   *router.Router
	topo     *topology.Topology

	transport *transport.Server
	status    *httpstatus.Server
	emergency *EmergencyRelease

	opened bool
	runErr chan error
}

// ClipboardIDs are the clipboards mirrored by default (selection and
// the system clipboard); callers may override via config.
var ClipboardIDs = []uint8{0, 1}

// clipboardNameIDs maps ClipboardConfig.Mirror's configurable names to
// wire protocol clipboard ids, following X11's PRIMARY (selection) /
// CLIPBOARD convention.
var clipboardNameIDs = map[string]uint8{
	"selection": 0,
	"clipboard": 1,
}

// clipboardIDsForNames resolves configured clipboard names to wire
// protocol ids, skipping (and logging) any name it doesn't recognize.
// An empty or fully-unrecognized list falls back to ClipboardIDs.
func clipboardIDsForNames(names []string) []uint8 {
	var ids []uint8
	for _, n := range names {
		id, ok := clipboardNameIDs[n]
		if !ok {
			logger.Warnf("control: unknown clipboard name %q in config, ignoring", n)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ClipboardIDs
	}
	return ids
}

// New constructs a Server from cfg, wiring a primary driver (pass
// primary.NewNoopDriver(cfg.Server.Name) until a real backend exists).
func New(cfg *config.Config, driver primary.Driver) (*Server, error) {
	topo, err := topology.New(cfg.Topology)
	if err != nil {
		return nil, fmt.Errorf("control: build topology: %w", err)
	}

	reg := screen.New(cfg.Server.Name)
	p, err := reg.Add(cfg.Server.Name, driver)
	if err != nil {
		return nil, fmt.Errorf("control: register primary: %w", err)
	}
	p.Geometry = topology.Extent{
		W:        int32(cfg.Server.PrimaryWidth),
		H:        int32(cfg.Server.PrimaryHeight),
		ZoneSize: int32(cfg.Server.ZoneSize),
	}
	p.Ready = true

	clips := clipboard.New(reg, clipboardIDsForNames(cfg.Clipboard.Mirror))

	engine, err := switcher.New(reg, topo, clips)
	if err != nil {
		return nil, fmt.Errorf("control: build switch engine: %w", err)
	}

	r := router.New(engine)

	s := &Server{
		cfg:      cfg,
		driver:   driver,
		registry: reg,
		clips:    clips,
		engine:   engine,
		router:   r,
		topo:     topo,
		runErr:   make(chan error, 1),
	}
	s.applyCommandBindings()

	s.transport = transport.NewServer(
		cfg.Server.Port,
		cfg.Server.SSHHostKeyPath,
		cfg.Server.MaxClients,
		cfg.Clipboard.CompressAboveBytes,
		transport.Callbacks{
			OnHandshake:     s.onHandshake,
			OnInfo:          s.onInfo,
			OnClipboardGrab: s.onClipboardGrab,
			OnClipboardSet:  s.onClipboardSet,
			OnDisconnect:    s.onDisconnect,
			OnAuthRequest:   s.onAuthRequest,
		},
	)
	s.status = httpstatus.New(cfg.Server.HTTPPort, cfg.Server.HTTPMaxSimultaneousRequests, s)
	s.emergency = NewEmergencyRelease(s)

	return s, nil
}

// Open acquires the primary screen driver. It fails if another
// instance already holds it.
func (s *Server) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return fmt.Errorf("control: already open")
	}
	if err := s.driver.Acquire(); err != nil {
		return fmt.Errorf("control: acquire primary driver: %w", err)
	}
	s.opened = true
	return nil
}

// Run starts the acceptor and blocks until Quit is called or a fatal
// I/O condition occurs. Preconditions: Open succeeded.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		return fmt.Errorf("control: run called before open")
	}
	s.mu.Unlock()

	if err := s.transport.Start(ctx); err != nil {
		return fmt.Errorf("control: start transport: %w", err)
	}
	if err := s.status.Start(); err != nil {
		s.transport.Stop()
		return fmt.Errorf("control: start status surface: %w", err)
	}
	s.emergency.Start()

	select {
	case <-ctx.Done():
		return nil
	case err := <-s.runErr:
		return err
	}
}

// Quit performs a graceful stop: close the listener, broadcast close
// to clients, reap workers, release the primary driver.
func (s *Server) Quit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.Iter(func(sc *screen.Screen) {
		if sc.Name != s.registry.PrimaryName() {
			_ = sc.Handle.Close()
		}
	})

	s.emergency.Stop()
	s.transport.Stop()
	_ = s.status.Stop(context.Background())

	if s.opened {
		s.driver.Release()
		s.opened = false
	}

	select {
	case s.runErr <- nil:
	default:
	}
}

// Shutdown performs an emergency stop: best-effort release, may skip
// client goodbyes.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transport.Stop()
	_ = s.status.Stop(context.Background())
	if s.opened {
		s.driver.Release()
		s.opened = false
	}

	select {
	case s.runErr <- fmt.Errorf("control: emergency shutdown"):
	default:
	}
}

// SetConfig validates cfg, and if valid, swaps it in under the lock
// and re-evaluates the active screen's neighbors. It accepts or
// rejects the whole config atomically: a rejected config leaves state
// unchanged.
func (s *Server) SetConfig(cfg *config.Config) error {
	warnings, err := topology.Validate(cfg.Topology, cfg.Server.Name, s.registry.Known)
	if err != nil {
		return fmt.Errorf("control: invalid config: %w", err)
	}
	for _, w := range warnings {
		logger.Warnf("control: setConfig: %s", w)
	}

	newTopo, err := topology.New(cfg.Topology)
	if err != nil {
		return fmt.Errorf("control: invalid config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = cfg
	s.topo = newTopo
	s.engine.SetTopology(newTopo)
	s.applyCommandBindings()
	return nil
}

// GetConfig returns the current configuration. The caller must not
// mutate the returned value.
func (s *Server) GetConfig() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// GetPrimaryScreenName returns the primary screen's configured name.
func (s *Server) GetPrimaryScreenName() string {
	return s.registry.PrimaryName()
}

// GetActivePrimarySides reports which edges of the primary screen
// currently have a neighbor configured, whether or not that neighbor
// is connected; useful for status reporting.
func (s *Server) GetActivePrimarySides() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sides []string
	for _, dir := range []topology.Direction{topology.Left, topology.Right, topology.Up, topology.Down} {
		if _, ok := s.topo.Neighbor(s.registry.PrimaryName(), dir); ok {
			sides = append(sides, dir.String())
		}
	}
	return sides
}

// PrimaryScreenName is an alias for GetPrimaryScreenName, satisfying
// httpstatus.StateProvider.
func (s *Server) PrimaryScreenName() string {
	return s.GetPrimaryScreenName()
}

// ScreenNames returns every registered screen's name, satisfying
// httpstatus.StateProvider.
func (s *Server) ScreenNames() []string {
	return s.Snapshot().ScreenNames
}

// ActiveScreenName returns the name of the currently active screen.
func (s *Server) ActiveScreenName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Active().Name
}

// Snapshot describes the server's current observable state, used by
// the HTTP status surface.
type Snapshot struct {
	PrimaryName string
	ActiveName  string
	ScreenNames []string
}

// Snapshot returns a point-in-time view of the server's state.
func (s *Server) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	s.registry.Iter(func(sc *screen.Screen) {
		names = append(names, sc.Name)
	})

	return Snapshot{
		PrimaryName: s.registry.PrimaryName(),
		ActiveName:  s.engine.Active().Name,
		ScreenNames: names,
	}
}

// OnMouseMovePrimary forwards a primary-driver mouse move to the
// switch engine under the server lock.
func (s *Server) OnMouseMovePrimary(x, y int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emergency.UpdateActivity()
	return s.engine.OnMouseMovePrimary(x, y)
}

// OnMouseMoveSecondary forwards a relative mouse delta to the switch
// engine under the server lock.
func (s *Server) OnMouseMoveSecondary(dx, dy int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emergency.UpdateActivity()
	s.engine.OnMouseMoveSecondary(dx, dy)
}

// OnKeyDown forwards a key-down event through the router under the
// server lock.
func (s *Server) OnKeyDown(keyID, modMask uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emergency.UpdateActivity()
	return s.router.OnKeyDown(keyID, modMask)
}

// UpdateFromPrimary signals that the primary driver now owns clipboard c.
func (s *Server) UpdateFromPrimary(c uint8, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.engine.NextSeq()
	s.clips.UpdateFromPrimary(c, seq, data, s.engine.Active())
}

func (s *Server) applyCommandBindings() {
	var keys []router.CommandKey
	for _, b := range s.cfg.Commands {
		target := commandSwitchTarget(b.Action)
		if target == "" {
			continue
		}
		keys = append(keys, router.CommandKey{
			KeyID:   keyCodeForName(b.Key),
			ModMask: modMaskForName(b.Modifier),
			Action: func() bool {
				s.mu.Lock()
				defer s.mu.Unlock()
				if err := s.engine.SwitchToNamed(target); err != nil {
					logger.Debugf("control: command-key switch to %q: %v", target, err)
					return false
				}
				return true
			},
		})
	}
	s.router.SetCommandKeys(keys)
}

// onHandshake validates and registers a connecting screen.
func (s *Server) onHandshake(name string, handle *transport.RemoteHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == s.registry.PrimaryName() {
		return fmt.Errorf("control: screen name %q is reserved for the primary", name)
	}
	if _, err := s.registry.Add(name, handle); err != nil {
		return fmt.Errorf("control: handshake rejected: %w", err)
	}
	logger.Infof("control: screen %q connected", name)
	return nil
}

func (s *Server) onInfo(name string, info wire.Info) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.registry.Lookup(name)
	if sc == nil {
		return
	}
	if info.W <= 0 || info.H <= 0 {
		logger.Warnf("control: screen %q reported zero-area geometry (%dx%d), disconnecting", name, info.W, info.H)
		_ = sc.Handle.Close()
		return
	}
	sc.Geometry = topology.Extent{W: info.W, H: info.H, ZoneSize: info.ZoneSize}
	sc.Ready = true
}

func (s *Server) onClipboardGrab(name string, msg wire.ClipboardGrab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips.Grab(msg.Clipboard, msg.SeqNum, name)
}

func (s *Server) onClipboardSet(name string, msg wire.ClipboardSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := clipboard.DecodeFromWire(msg.Data, msg.Compressed)
	if err != nil {
		logger.Errorf("control: decode clipboard payload from %s: %v", name, err)
		return
	}
	s.clips.SetData(msg.Clipboard, msg.SeqNum, data, s.engine.Active())
}

func (s *Server) onDisconnect(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.Infof("control: screen %q disconnected", name)
	s.engine.RemoveScreen(name)
}

// onAuthRequest prompts the server's stderr/TTY for one-time approval
// of an unrecognized SSH key. Approval is not persisted here: the
// transport adds the fingerprint to the whitelist itself once this
// returns true.
func (s *Server) onAuthRequest(addr, publicKey, fingerprint string) bool {
	if !s.cfg.Server.SSHInteractiveApproval {
		logger.Warnf("control: unrecognized ssh key from %s fingerprint=%s rejected (interactive approval disabled)", addr, fingerprint)
		return false
	}

	fmt.Fprintf(os.Stderr, "\ncontrol: new screen connection from %s\n", addr)
	fmt.Fprintf(os.Stderr, "  key fingerprint: %s\n", fingerprint)
	fmt.Fprintf(os.Stderr, "Approve and add to whitelist? [y/N]: ")

	answered := make(chan bool, 1)
	go func() {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			answered <- false
			return
		}
		line = strings.ToLower(strings.TrimSpace(line))
		answered <- line == "y" || line == "yes"
	}()

	select {
	case approved := <-answered:
		if approved {
			logger.Infof("control: ssh key %s from %s approved", fingerprint, addr)
		} else {
			logger.Warnf("control: ssh key %s from %s rejected", fingerprint, addr)
		}
		return approved
	case <-time.After(30 * time.Second):
		logger.Warnf("control: ssh approval prompt for %s timed out, rejecting", addr)
		return false
	}
}
