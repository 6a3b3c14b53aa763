/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package host is the deployment substrate modules live on. It assigns
// addresses to module code and resolves code by address, the way a chain
// resolves contract code for a delegate call.
package host

import (
	"encoding/binary"
	"errors"
	"sync"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/partition"
)

var (
	// ErrNilModule is returned when nil module code is deployed.
	ErrNilModule = errors.New("diamond(host): nil module")
	// ErrAddressInUse is returned when DeployAt targets an occupied address.
	ErrAddressInUse = errors.New("diamond(host): address already has code")
	// ErrZeroAddress is returned when DeployAt targets the zero address.
	ErrZeroAddress = errors.New("diamond(host): cannot deploy at the zero address")
)

// Host maps addresses to module code. Safe for concurrent use.
type Host struct {
	mu    sync.RWMutex
	code  map[apis.Address]apis.Module
	nonce uint64
}

// Ensure Host implements apis.Deployments.
var _ apis.Deployments = (*Host)(nil)

// New returns an empty host.
func New() *Host {
	return &Host{code: make(map[apis.Address]apis.Module)}
}

// Deploy stores m at a fresh address derived from the host nonce.
func (h *Host) Deploy(m apis.Module) (apis.Address, error) {
	if m == nil {
		return apis.ZeroAddress, ErrNilModule
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		h.nonce++
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], h.nonce)
		addr := partition.Keccak([]byte("diamond.host"), n[:]).Address()
		if _, taken := h.code[addr]; taken || addr.IsZero() {
			continue
		}
		h.code[addr] = m
		return addr, nil
	}
}

// DeployAt stores m at addr.
func (h *Host) DeployAt(addr apis.Address, m apis.Module) error {
	if m == nil {
		return ErrNilModule
	}
	if addr.IsZero() {
		return ErrZeroAddress
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, taken := h.code[addr]; taken {
		return ErrAddressInUse
	}
	h.code[addr] = m
	return nil
}

// Code returns the module deployed at addr.
func (h *Host) Code(addr apis.Address) (apis.Module, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.code[addr]
	return m, ok
}
