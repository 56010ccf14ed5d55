// Package config loads the declarative sizing parameters a windowing
// engine needs to stand up: how many segment descriptors the shared
// pool carries, and how a given connection's window, MSS, and initial
// SRTT are sized. Values are described in YAML so a board profile can
// ship as data instead of a recompiled struct literal.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// EngineConfig sizes the process-wide segment pool shared by every
// window in a stack.
type EngineConfig struct {
	// PoolCapacity is the number of segment descriptors the arena
	// carries. Typical embedded deployments run 32-256.
	PoolCapacity int `yaml:"pool_capacity"`
}

// WindowConfig sizes one connection's sliding window.
type WindowConfig struct {
	RxWindowLen int    `yaml:"rx_window_len"`
	TxWindowLen int    `yaml:"tx_window_len"`
	MSS         int    `yaml:"mss"`
	InitialSRTT uint32 `yaml:"initial_srtt_ms"`
}

// DefaultWindowConfig returns the values a window uses when nothing more
// specific is loaded: a 1460-byte MSS, a 1000ms initial SRTT estimate
// (the same value a window assumes when no initial SRTT is set), and
// 64KiB windows in both directions.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		RxWindowLen: 65535,
		TxWindowLen: 65535,
		MSS:         1460,
		InitialSRTT: 1000,
	}
}

// Load parses an EngineConfig and one or more named WindowConfigs out of
// a YAML document of the form:
//
//	pool_capacity: 64
//	windows:
//	  default:
//	    rx_window_len: 65535
//	    tx_window_len: 65535
//	    mss: 1460
//	    initial_srtt_ms: 1000
func Load(data []byte) (EngineConfig, map[string]WindowConfig, error) {
	var doc struct {
		EngineConfig `yaml:",inline"`
		Windows      map[string]WindowConfig `yaml:"windows"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return EngineConfig{}, nil, fmt.Errorf("config: parse: %w", err)
	}
	if doc.PoolCapacity <= 0 {
		return EngineConfig{}, nil, fmt.Errorf("config: pool_capacity must be positive, got %d", doc.PoolCapacity)
	}
	return doc.EngineConfig, doc.Windows, nil
}
