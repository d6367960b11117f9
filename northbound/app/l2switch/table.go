/*
 * Cherry - An OpenFlow Controller
 *
 * Copyright (C) 2015 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package l2switch

import (
	"encoding/json"
	"net"
	"sort"
	"sync"

	"github.com/superkkt/snooper/openflow"
)

// Table remembers the port on which each MAC address was last seen, per switch.
// Entries never expire and later observations overwrite earlier ones.
type Table struct {
	mutex   sync.Mutex
	devices map[openflow.DPID]*macTable
}

type macTable struct {
	mutex   sync.Mutex
	entries map[string]uint32
}

type Entry struct {
	MAC  net.HardwareAddr
	Port uint32
}

func (r Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MAC  string `json:"mac"`
		Port uint32 `json:"port"`
	}{r.MAC.String(), r.Port})
}

func NewTable() *Table {
	return &Table{
		devices: make(map[openflow.DPID]*macTable),
	}
}

func (r *Table) device(dpid openflow.DPID) *macTable {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	t, ok := r.devices[dpid]
	if !ok {
		t = &macTable{entries: make(map[string]uint32)}
		r.devices[dpid] = t
	}

	return t
}

func (r *macTable) learn(mac net.HardwareAddr, port uint32) {
	// FLOOD is a forwarding decision, not a location.
	if port == openflow.PortFlood {
		logger.Warningf("ignoring the flood port as a location of %v", mac)
		return
	}
	r.entries[mac.String()] = port
}

func (r *macTable) lookup(mac net.HardwareAddr) (port uint32, ok bool) {
	port, ok = r.entries[mac.String()]
	return port, ok
}

func (r *Table) Learn(dpid openflow.DPID, mac net.HardwareAddr, port uint32) {
	t := r.device(dpid)
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.learn(mac, port)
}

func (r *Table) Lookup(dpid openflow.DPID, mac net.HardwareAddr) (port uint32, ok bool) {
	t := r.device(dpid)
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.lookup(mac)
}

// LearnAndLookup learns src on port and then resolves dst, both under the lock
// of the switch table so that no other update can interleave.
func (r *Table) LearnAndLookup(dpid openflow.DPID, src net.HardwareAddr, port uint32, dst net.HardwareAddr) (dstPort uint32, ok bool) {
	t := r.device(dpid)
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.learn(src, port)
	return t.lookup(dst)
}

// Entries returns the learned entries of a switch ordered by MAC address.
func (r *Table) Entries(dpid openflow.DPID) []Entry {
	r.mutex.Lock()
	t, ok := r.devices[dpid]
	r.mutex.Unlock()
	if !ok {
		return []Entry{}
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	result := make([]Entry, 0, len(t.entries))
	for k, v := range t.entries {
		mac, err := net.ParseMAC(k)
		if err != nil {
			panic("invalid MAC address in the forwarding table: " + k)
		}
		result = append(result, Entry{MAC: mac, Port: v})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MAC.String() < result[j].MAC.String() })

	return result
}

// Devices returns the switches that have a forwarding table.
func (r *Table) Devices() []openflow.DPID {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	result := make([]openflow.DPID, 0, len(r.devices))
	for dpid := range r.devices {
		result = append(result, dpid)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })

	return result
}
