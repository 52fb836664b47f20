package cmd

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/snip-cli/snip/internal/config"
	"github.com/snip-cli/snip/internal/utils"
)

func portFilePath() string {
	return filepath.Join(config.GetRuntimeDir(), "port")
}

func tokenFilePath() string {
	return filepath.Join(config.GetStateDir(), "token")
}

// readActivePort reads the port from the port file
func readActivePort() int {
	data, err := os.ReadFile(portFilePath())
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return port
}

// saveActivePort writes the active port for CLI and `snip connect` discovery
func saveActivePort(port int) {
	path := portFilePath()
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(strconv.Itoa(port)), 0o644); err != nil {
		utils.Debug("Error writing port file: %v", err)
	}
	utils.Debug("HTTP server listening on port %d", port)
}

// removeActivePort cleans up the port file on exit
func removeActivePort() {
	if err := os.Remove(portFilePath()); err != nil && !os.IsNotExist(err) {
		utils.Debug("Error removing port file: %v", err)
	}
}

// findAvailablePort tries ports starting from 'start' until one is available
func findAvailablePort(host string, start int) (int, net.Listener) {
	for port := start; port < start+100; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return port, ln
		}
	}
	return 0, nil
}

// readURLsFromFile reads URLs from a file, one per line
func readURLsFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}
	return urls, scanner.Err()
}

// ensureAuthToken returns the server token, creating it on first use.
func ensureAuthToken() string {
	tokenFile := tokenFilePath()
	data, err := os.ReadFile(tokenFile)
	if err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}

	// Generate new token
	token := uuid.New().String()
	_ = os.MkdirAll(filepath.Dir(tokenFile), 0o755)
	if err := os.WriteFile(tokenFile, []byte(token), 0o600); err != nil {
		utils.Debug("Failed to write token file: %v", err)
	}
	return token
}

// resolveAPIConnection finds a running local server and its token.
func resolveAPIConnection(requireServer bool) (string, string, error) {
	port := readActivePort()
	if port == 0 {
		if requireServer {
			return "", "", fmt.Errorf("no running snip server found (start one with 'snip serve')")
		}
		return "", "", nil
	}

	token := strings.TrimSpace(os.Getenv("SNIP_TOKEN"))
	if token == "" {
		token = ensureAuthToken()
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port), token, nil
}

// isLoopback reports whether target (host or host:port) is this machine.
func isLoopback(target string) bool {
	host := target
	if h, _, err := net.SplitHostPort(target); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
