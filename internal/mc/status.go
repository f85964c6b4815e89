// Package mc looks up the live status of Java-edition Minecraft servers.
package mc

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dreamscached/minequery/v2"

	"github.com/wenlin9/xdbot/internal/logger"
	"github.com/wenlin9/xdbot/pkg/constants"
)

// DefaultPort is the default Java-edition server port.
const DefaultPort = 25565

// Status is the slice of a server list ping the bot reports.
type Status struct {
	Latency       time.Duration
	OnlinePlayers int
	MaxPlayers    int
	SamplePlayers []string
}

// Querier pings servers. It exists so feature handlers can be tested
// without a live server.
type Querier struct {
	pinger *minequery.Pinger
}

// NewQuerier creates a querier with the given per-ping timeout.
func NewQuerier(timeout time.Duration) *Querier {
	if timeout == 0 {
		timeout = constants.DefaultMinecraftQueryTimeout
	}
	return &Querier{
		pinger: minequery.NewPinger(minequery.WithTimeout(timeout)),
	}
}

// Query pings the server at address ("host" or "host:port") and reports
// player counts, the sampled name list and the measured round-trip time.
func (q *Querier) Query(address string) (*Status, error) {
	host, port, err := splitAddress(address)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ping, err := q.pinger.Ping17(host, port)
	if err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", address, err)
	}
	latency := time.Since(start)

	players := make([]string, 0, len(ping.SamplePlayers))
	for _, player := range ping.SamplePlayers {
		players = append(players, player.Nickname)
	}

	logger.WithFields(map[string]interface{}{
		"address": address,
		"online":  ping.OnlinePlayers,
		"max":     ping.MaxPlayers,
		"latency": latency,
	}).Debug("minecraft-server-pinged")

	return &Status{
		Latency:       latency,
		OnlinePlayers: ping.OnlinePlayers,
		MaxPlayers:    ping.MaxPlayers,
		SamplePlayers: players,
	}, nil
}

// splitAddress splits "host:port" and defaults the port when omitted.
func splitAddress(address string) (string, int, error) {
	if address == "" {
		return "", 0, errors.New("empty server address")
	}

	host, portText, found := strings.Cut(address, ":")
	if !found {
		return address, DefaultPort, nil
	}
	if host == "" {
		return "", 0, fmt.Errorf("invalid server address %q", address)
	}

	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in server address %q", address)
	}
	return host, port, nil
}

// IsConnectionError reports whether err looks like an unreachable host or
// timeout rather than a protocol-level failure.
func IsConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
