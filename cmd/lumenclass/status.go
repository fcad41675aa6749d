package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenclass/lumenclass/internal/config"
)

// ServiceStatus holds the probe result for one HTTP endpoint.
type ServiceStatus struct {
	Endpoint  string `json:"endpoint"`
	Reachable bool   `json:"reachable"`
	Health    string `json:"health,omitempty"`
	Error     string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// newStatusCmd creates the status subcommand with all flags configured.
func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show health of a running LumenClass server",
		Long:  `Probe the API and metrics endpoints of a running server and report their health.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	// Register flags
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().String("http_addr", config.DefaultHTTPAddr, "API listen address to probe")
	cmd.Flags().String("metrics_addr", config.DefaultMetricsAddr, "metrics/health address to probe (empty = skipped)")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	appCfg, err := config.Load(resolveConfigPath(), cmd.Flags())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	statuses := map[string]ServiceStatus{
		"api": probeEndpoint(probeURL(appCfg.HTTPAddr, "/healthz")),
	}
	if appCfg.MetricsAddr != "" {
		statuses["metrics"] = probeEndpoint(probeURL(appCfg.MetricsAddr, "/healthz/readiness"))
	}

	// Format and output the results
	var output string
	if cfg.jsonOutput {
		output, err = formatStatusJSON(statuses)
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
	} else {
		output = formatStatusTable(statuses)
	}

	cmd.Println(output)
	return nil
}

// probeURL turns a listen address like ":8080" into a probe URL.
func probeURL(addr, path string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr + path
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + path
}

// probeEndpoint performs a GET against url and classifies the result.
func probeEndpoint(url string) ServiceStatus {
	status := ServiceStatus{Endpoint: url}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	status.Reachable = true
	switch {
	case resp.StatusCode == http.StatusOK:
		status.Health = "healthy"
	case resp.StatusCode == http.StatusServiceUnavailable:
		status.Health = "not ready"
	default:
		status.Health = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}

	return status
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(statuses map[string]ServiceStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	// Header
	_, _ = fmt.Fprintln(w, "SERVICE\tENDPOINT\tHEALTH")
	_, _ = fmt.Fprintln(w, "-------\t--------\t------")

	// Process rows in consistent order
	for _, name := range []string{"api", "metrics"} {
		status, ok := statuses[name]
		if !ok {
			continue
		}
		if status.Reachable {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, status.Endpoint, status.Health)
		} else {
			reason := "unreachable"
			if status.Error != "" {
				reason = status.Error
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, status.Endpoint, reason)
		}
	}

	_ = w.Flush()
	return strings.TrimRight(string(buf), "\n")
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(statuses map[string]ServiceStatus) (string, error) {
	data, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal status: %w", err)
	}
	return string(data), nil
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
