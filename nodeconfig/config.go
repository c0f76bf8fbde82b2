// Package nodeconfig loads the node's TOML configuration document. The
// file has one nested table per component, matching the component
// boundaries used throughout the rest of the module: [node] for the
// ledger/peering runtime, [opencl] for delegated proof-of-work.
package nodeconfig

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"nanoforge.dev/node/blockgraph"
)

// Config is the root of the TOML document.
type Config struct {
	Node   NodeConfig   `toml:"node" mapstructure:"node"`
	OpenCL OpenCLConfig `toml:"opencl" mapstructure:"opencl"`
}

// NodeConfig is the [node] table.
type NodeConfig struct {
	Network  string   `toml:"network" mapstructure:"network"`
	DataDir  string   `toml:"data_dir" mapstructure:"data_dir"`
	BindAddr string   `toml:"bind_addr" mapstructure:"bind_addr"`
	LogLevel string   `toml:"log_level" mapstructure:"log_level"`
	Peers    []string `toml:"peers" mapstructure:"peers"`
	MaxPeers int      `toml:"max_peers" mapstructure:"max_peers"`

	// PeeringPort is the UDP bind port for peer discovery and gossip,
	// separate from BindAddr's TCP block-exchange listener.
	PeeringPort int `toml:"peering_port" mapstructure:"peering_port"`
	// IOThreads sizes the reader-pool that decodes inbound wire messages.
	IOThreads int `toml:"io_threads" mapstructure:"io_threads"`
	// EnableVoting turns on representative vote generation for elections
	// this node is a rep for.
	EnableVoting bool `toml:"enable_voting" mapstructure:"enable_voting"`
	// BandwidthLimit caps total outbound bytes/sec across all peers. Zero
	// means unlimited.
	BandwidthLimit uint64 `toml:"bandwidth_limit" mapstructure:"bandwidth_limit"`
	// VoteMinimum is the balance threshold below which an account's
	// delegated weight does not count as a representative.
	VoteMinimum uint64 `toml:"vote_minimum" mapstructure:"vote_minimum"`
	// ReceiveMinimum is the pending amount below which a wallet's
	// auto-receive sweep skips a pending block.
	ReceiveMinimum uint64 `toml:"receive_minimum" mapstructure:"receive_minimum"`
}

// OpenCLConfig is the [opencl] table.
type OpenCLConfig struct {
	// Enable delegates proof-of-work generation to an OpenCL device
	// instead of computing it on the CPU.
	Enable bool `toml:"enable" mapstructure:"enable"`
}

// VoteMinimumAmount and ReceiveMinimumAmount widen the raw TOML uint64
// into the ledger's 128-bit Amount. Thresholds this large have never been
// required in practice, so the config surface stays plain uint64 and the
// widening happens once at the point of use.
func (c Config) VoteMinimumAmount() blockgraph.Amount {
	return blockgraph.AmountFromUint64(c.Node.VoteMinimum)
}

func (c Config) ReceiveMinimumAmount() blockgraph.Amount {
	return blockgraph.AmountFromUint64(c.Node.ReceiveMinimum)
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".ledgernode"
	}
	return filepath.Join(home, ".ledgernode")
}

func DefaultConfig() Config {
	return Config{
		Node: NodeConfig{
			Network:        "devnet",
			DataDir:        DefaultDataDir(),
			BindAddr:       "0.0.0.0:19111",
			LogLevel:       "info",
			Peers:          nil,
			MaxPeers:       64,
			PeeringPort:    19112,
			IOThreads:      4,
			EnableVoting:   false,
			BandwidthLimit: 0,
			VoteMinimum:    1_000_000,
			ReceiveMinimum: 1000,
		},
		OpenCL: OpenCLConfig{
			Enable: false,
		},
	}
}

func NormalizePeers(raw ...string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, token := range raw {
		for _, p := range strings.Split(token, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func Validate(cfg Config) error {
	n := cfg.Node
	if strings.TrimSpace(n.Network) == "" {
		return errors.New("node.network is required")
	}
	if strings.TrimSpace(n.DataDir) == "" {
		return errors.New("node.data_dir is required")
	}
	if err := validateAddr(n.BindAddr); err != nil {
		return fmt.Errorf("invalid node.bind_addr: %w", err)
	}
	for _, peer := range n.Peers {
		if err := validatePeerAddr(peer); err != nil {
			return fmt.Errorf("invalid peer %q: %w", peer, err)
		}
	}
	logLevel := strings.ToLower(strings.TrimSpace(n.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid node.log_level %q", n.LogLevel)
	}
	if n.MaxPeers <= 0 {
		return errors.New("node.max_peers must be > 0")
	}
	if n.MaxPeers > 4096 {
		return errors.New("node.max_peers must be <= 4096")
	}
	if n.PeeringPort <= 0 || n.PeeringPort > 65535 {
		return errors.New("node.peering_port must be a valid port number")
	}
	if n.IOThreads <= 0 {
		return errors.New("node.io_threads must be > 0")
	}
	return nil
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty address")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if strings.TrimSpace(port) == "" {
		return errors.New("missing port")
	}
	if strings.Contains(host, " ") {
		return errors.New("invalid host")
	}
	return nil
}

func validatePeerAddr(addr string) error {
	if err := validateAddr(addr); err != nil {
		return err
	}
	host, _, _ := net.SplitHostPort(addr)
	if strings.TrimSpace(host) == "" {
		return errors.New("missing host")
	}
	return nil
}
