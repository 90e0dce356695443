package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/screenlink/screenlink/internal/config"
)

type statusResponse struct {
	PrimaryScreen string   `json:"primary_screen"`
	ActiveScreen  string   `json:"active_screen"`
	Screens       []string `json:"screens"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running screenlink server's status",
	Long:  `Fetch GET /status from a running screenlink server's HTTP status surface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		client := &http.Client{Timeout: 3 * time.Second}
		url := fmt.Sprintf("http://127.0.0.1:%d/status", cfg.Server.HTTPPort)
		resp, err := client.Get(url)
		if err != nil {
			fmt.Println(errorStyle.Render("○ screenlink server is not reachable"))
			return nil
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status request failed: %s", resp.Status)
		}

		var st statusResponse
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		fmt.Println(successStyle.Render("● screenlink server is running"))
		fmt.Println()
		for _, name := range st.Screens {
			line := "  " + name
			if name == st.PrimaryScreen {
				line += " (primary)"
			}
			if name == st.ActiveScreen {
				fmt.Println(activeStyle.Render(line + " ◀ active"))
			} else {
				fmt.Println(screenStyle.Render(line))
			}
		}

		return nil
	},
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func init() {
	rootCmd.AddCommand(statusCmd)
}