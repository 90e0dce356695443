package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/screenlink/screenlink/internal/config"
	"github.com/screenlink/screenlink/internal/control"
	"github.com/screenlink/screenlink/internal/logger"
	"github.com/screenlink/screenlink/internal/primary"
)

var (
	servePort int
	serveBind string
	serveNoTUI bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the screenlink server",
	Long: `Run the screenlink server: accept remote screen connections over SSH
and route keyboard, mouse, and clipboard events to whichever screen the
cursor is currently over.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "SSH port to listen on")
	serveCmd.Flags().StringVarP(&serveBind, "bind", "b", "", "bind address")
	serveCmd.Flags().BoolVar(&serveNoTUI, "no-tui", false, "log to stderr instead of showing the status view")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.bind_address", serveCmd.Flags().Lookup("bind"))
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := ensureServerConfig(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	cfg := config.Get()
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveBind != "" {
		cfg.Server.BindAddress = serveBind
	}

	driver := primary.NewNoopDriver(cfg.Server.Name)
	srv, err := control.New(cfg, driver)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	if err := srv.Open(); err != nil {
		return fmt.Errorf("failed to open server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- srv.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if serveNoTUI {
		logger.Infof("screenlink server %q listening on %s:%d (status on :%d)",
			cfg.Server.Name, cfg.Server.BindAddress, cfg.Server.Port, cfg.Server.HTTPPort)
		select {
		case <-sigCh:
		case err := <-runErrCh:
			if err != nil {
				srv.Quit()
				return err
			}
		}
		srv.Quit()
		return nil
	}

	model := newStatusModel(srv, cfg.Server.Port)
	p := tea.NewProgram(model)

	go func() {
		select {
		case <-sigCh:
		case <-runErrCh:
		}
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		srv.Quit()
		return err
	}

	cancel()
	srv.Quit()
	return nil
}

func ensureServerConfig() error {
	configPath := config.GetConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Infof("No config file found. Creating default config at %s", configPath)
		if err := config.Save(); err != nil {
			return err
		}
		logger.Info("Default configuration created successfully")
	}
	return nil
}

// statusModel is an inline bubbletea status view refreshed on a fixed
// tick, reading the server's observable state through Snapshot. The
// screen list renders into a viewport so a server with many connected
// screens scrolls instead of overflowing the terminal.
type statusModel struct {
	srv  *control.Server
	port int
	snap control.Snapshot
	vp   viewport.Model
}

func newStatusModel(srv *control.Server, port int) statusModel {
	m := statusModel{srv: srv, port: port, snap: srv.Snapshot(), vp: viewport.New(40, 10)}
	m.vp.SetContent(m.screenList())
	return m
}

type tickMsg time.Time

func (m statusModel) Init() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.vp.Width = msg.Width
		m.vp.Height = msg.Height - 4
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.snap = m.srv.Snapshot()
		m.vp.SetContent(m.screenList())
		return m, tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m statusModel) screenList() string {
	var out string
	for _, name := range m.snap.ScreenNames {
		line := "  " + name
		if name == m.snap.PrimaryName {
			line += " (primary)"
		}
		if name == m.snap.ActiveName {
			out += activeStyle.Render(line+" ◀ active") + "\n"
		} else {
			out += screenStyle.Render(line) + "\n"
		}
	}
	return out
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	screenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (m statusModel) View() string {
	out := headerStyle.Render(fmt.Sprintf("screenlink server — port %d", m.port)) + "\n\n"
	out += m.vp.View()
	out += "\n" + helpStyle.Render("press q to stop the server")
	return out
}
