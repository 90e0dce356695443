// Package transport implements the connection lifecycle: an SSH
// listener accepts one connection per remote screen, performs the
// handshake, then runs a read loop dispatching client->server frames
// to callbacks. Each accepted session is also wrapped as a
// screen.Handle (RemoteHandle) so the rest of the server can address
// the screen without knowing it is remote at all.
package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/google/uuid"
	gossh "golang.org/x/crypto/ssh"

	"github.com/screenlink/screenlink/internal/config"
	"github.com/screenlink/screenlink/internal/logger"
	"github.com/screenlink/screenlink/internal/wire"
)

// Callbacks lets the control surface react to connection lifecycle
// and client->server frames without transport importing the
// registry/clipboard/switcher packages directly.
type Callbacks struct {
	// OnHandshake is called once a session sends Hello. It returns an
	// error to refuse the connection (e.g. name already in use).
	OnHandshake func(name string, handle *RemoteHandle) error

	// OnInfo is called whenever the client reports its geometry.
	OnInfo func(name string, info wire.Info)

	// OnClipboardGrab/OnClipboardSet forward client-originated
	// clipboard protocol messages.
	OnClipboardGrab func(name string, msg wire.ClipboardGrab)
	OnClipboardSet  func(name string, msg wire.ClipboardSet)

	// OnDisconnect is called once the session's read loop exits, for
	// any reason (clean close, error, or server shutdown).
	OnDisconnect func(name string)

	// OnAuthRequest is consulted for a not-yet-whitelisted key; it
	// returns whether to approve the connection and add the key to
	// the whitelist.
	OnAuthRequest func(addr, publicKey, fingerprint string) bool
}

// Server accepts SSH connections, one per remote screen.
type Server struct {
	port               int
	hostKeyPath        string
	maxClients         int
	compressAboveBytes int
	callbacks          Callbacks

	sshServer *ssh.Server
	ctx       context.Context

	mu      sync.Mutex
	clients map[string]*session // sessionID -> session

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type session struct {
	sess   ssh.Session
	name   string
	handle *RemoteHandle
	connID string // correlates log lines for one connection across reconnects with the same screen name
}

// NewServer creates an SSH transport server listening on port, using
// hostKeyPath as its host key, accepting at most maxClients
// simultaneous remote screens. compressAboveBytes is forwarded to
// every RemoteHandle it creates.
func NewServer(port int, hostKeyPath string, maxClients, compressAboveBytes int, callbacks Callbacks) *Server {
	return &Server{
		port:               port,
		hostKeyPath:        hostKeyPath,
		maxClients:         maxClients,
		compressAboveBytes: compressAboveBytes,
		callbacks:          callbacks,
		clients:            make(map[string]*session),
		stop:               make(chan struct{}),
	}
}

// Start begins listening for SSH connections.
func (s *Server) Start(ctx context.Context) error {
	server, err := wish.NewServer(
		wish.WithAddress(fmt.Sprintf(":%d", s.port)),
		wish.WithHostKeyPath(s.hostKeyPath),
		wish.WithPublicKeyAuth(s.publicKeyAuth),
		wish.WithMiddleware(
			s.loggingMiddleware(),
			activeterm.Middleware(),
			s.sessionHandler(),
		),
	)
	if err != nil {
		return fmt.Errorf("transport: create ssh server: %w", err)
	}
	s.sshServer = server
	s.ctx = ctx

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger.Infof("transport: listening on port %d", s.port)
		if err := server.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
			logger.Errorf("transport: server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop shuts down the server and closes every active session.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)

		if s.sshServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.sshServer.Shutdown(ctx)
		}

		s.mu.Lock()
		for _, c := range s.clients {
			_ = c.sess.Close()
		}
		s.clients = make(map[string]*session)
		s.mu.Unlock()

		s.wg.Wait()
	})
}

// publicKeyAuth checks a connecting key against the whitelist, falling
// through to interactive approval when configured.
func (s *Server) publicKeyAuth(ctx ssh.Context, key ssh.PublicKey) bool {
	var goKey gossh.PublicKey
	if wishKey, ok := key.(gossh.PublicKey); ok {
		goKey = wishKey
	} else {
		parsed, err := gossh.ParsePublicKey(key.Marshal())
		if err != nil {
			logger.Errorf("transport: parse public key: %v", err)
			return false
		}
		goKey = parsed
	}

	fingerprint := gossh.FingerprintSHA256(goKey)
	addr := ctx.RemoteAddr().String()

	logger.Infof("transport: auth attempt addr=%s user=%s key=%s", addr, ctx.User(), fingerprint)

	if config.IsSSHKeyWhitelisted(fingerprint) {
		return true
	}

	cfg := config.Get()
	if !cfg.Server.SSHWhitelistOnly {
		return true
	}

	if s.callbacks.OnAuthRequest != nil {
		approved := s.callbacks.OnAuthRequest(addr, string(gossh.MarshalAuthorizedKey(goKey)), fingerprint)
		if approved {
			if err := config.AddSSHKeyToWhitelist(fingerprint); err != nil {
				logger.Errorf("transport: add key to whitelist: %v", err)
			}
			return true
		}
		return false
	}

	logger.Infof("transport: key denied, no auth handler key=%s addr=%s", fingerprint, addr)
	return false
}

func (s *Server) loggingMiddleware() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			logger.Debugf("transport: session started addr=%s", sess.RemoteAddr())
			h(sess)
			logger.Debugf("transport: session ended addr=%s", sess.RemoteAddr())
		}
	}
}

// sessionHandler performs the handshake then runs the client's read
// loop for the rest of the session's lifetime.
func (s *Server) sessionHandler() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			s.mu.Lock()
			if s.maxClients > 0 && len(s.clients) >= s.maxClients {
				s.mu.Unlock()
				logger.Infof("transport: rejecting session, max clients reached addr=%s", sess.RemoteAddr())
				fmt.Fprintf(sess, "server already has the maximum number of active screens\n")
				_ = sess.Exit(1)
				_ = sess.Close()
				return
			}
			s.mu.Unlock()

			name, err := s.handshake(sess)
			if err != nil {
				logger.Infof("transport: handshake failed addr=%s: %v", sess.RemoteAddr(), err)
				_ = wire.WriteFrame(sess, wire.KindError, wire.ErrorPayload{Message: err.Error()})
				_ = sess.Close()
				return
			}

			s.readLoop(s.ctx, sess, name)
		}
	}
}

// handshake blocks for the first frame, which must be Hello, and
// registers the resulting screen via OnHandshake.
func (s *Server) handshake(sess ssh.Session) (string, error) {
	frame, err := wire.ReadFrame(sess)
	if err != nil {
		return "", fmt.Errorf("read hello: %w", err)
	}
	if frame.Kind != wire.KindHello {
		return "", fmt.Errorf("expected hello, got %s", frame.Kind)
	}
	var hello wire.Hello
	if err := frame.Decode(&hello); err != nil {
		return "", fmt.Errorf("decode hello: %w", err)
	}
	if hello.ScreenName == "" {
		return "", fmt.Errorf("empty screen name")
	}

	handle := NewRemoteHandle(hello.ScreenName, sess, s.compressAboveBytes)
	connID := uuid.NewString()

	if s.callbacks.OnHandshake != nil {
		if err := s.callbacks.OnHandshake(hello.ScreenName, handle); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	s.clients[sess.Context().SessionID()] = &session{sess: sess, name: hello.ScreenName, handle: handle, connID: connID}
	s.mu.Unlock()

	logger.Infof("transport: screen %q handshake complete conn=%s", hello.ScreenName, connID)
	return hello.ScreenName, nil
}

// readLoop reads client->server frames until the connection closes or
// the context/server is cancelled, dispatching each to its callback.
func (s *Server) readLoop(ctx context.Context, sess ssh.Session, name string) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, sess.Context().SessionID())
		s.mu.Unlock()
		if s.callbacks.OnDisconnect != nil {
			s.callbacks.OnDisconnect(name)
		}
	}()

	type readResult struct {
		frame wire.Frame
		err   error
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}

		readCh := make(chan readResult, 1)
		go func() {
			f, err := wire.ReadFrame(sess)
			readCh <- readResult{frame: f, err: err}
		}()

		select {
		case <-ctx.Done():
			_ = sess.Close()
			return
		case <-s.stop:
			_ = sess.Close()
			return
		case result := <-readCh:
			if result.err != nil {
				if result.err != io.EOF {
					logger.Debugf("transport: read error name=%s: %v", name, result.err)
				}
				return
			}
			s.dispatch(name, result.frame)
		}
	}
}

func (s *Server) dispatch(name string, f wire.Frame) {
	switch f.Kind {
	case wire.KindInfo:
		var msg wire.Info
		if err := f.Decode(&msg); err != nil {
			return
		}
		if s.callbacks.OnInfo != nil {
			s.callbacks.OnInfo(name, msg)
		}
	case wire.KindClipboardGrab:
		var msg wire.ClipboardGrab
		if err := f.Decode(&msg); err != nil {
			return
		}
		if s.callbacks.OnClipboardGrab != nil {
			s.callbacks.OnClipboardGrab(name, msg)
		}
	case wire.KindClipboardSet:
		var msg wire.ClipboardSet
		if err := f.Decode(&msg); err != nil {
			return
		}
		if s.callbacks.OnClipboardSet != nil {
			s.callbacks.OnClipboardSet(name, msg)
		}
	case wire.KindNoop:
		// keepalive, nothing to do
	case wire.KindError:
		var msg wire.ErrorPayload
		_ = f.Decode(&msg)
		logger.Infof("transport: client %s reported error: %s", name, msg.Message)
	default:
		logger.Debugf("transport: unexpected frame kind %s from %s", f.Kind, name)
	}
}

// Port returns the server's listening port.
func (s *Server) Port() int {
	return s.port
}
