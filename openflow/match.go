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

package openflow

import (
	"bytes"
	"fmt"
	"net"
	"strings"
)

// Match is a flow match. A zero Match matches every packet.
type Match struct {
	inPort    uint32
	hasInPort bool
	dstMAC    net.HardwareAddr
}

func NewMatch() Match {
	return Match{}
}

func (r *Match) SetInPort(port uint32) {
	r.inPort = port
	r.hasInPort = true
}

func (r *Match) SetDstMAC(mac net.HardwareAddr) {
	v := make(net.HardwareAddr, len(mac))
	copy(v, mac)
	r.dstMAC = v
}

func (r Match) InPort() (port uint32, ok bool) {
	return r.inPort, r.hasInPort
}

func (r Match) DstMAC() (mac net.HardwareAddr, ok bool) {
	return r.dstMAC, r.dstMAC != nil
}

func (r Match) IsWildcard() bool {
	return r.hasInPort == false && r.dstMAC == nil
}

func (r Match) Equal(other Match) bool {
	if r.hasInPort != other.hasInPort || r.inPort != other.inPort {
		return false
	}

	return bytes.Equal(r.dstMAC, other.dstMAC)
}

func (r Match) String() string {
	if r.IsWildcard() {
		return "*"
	}

	fields := make([]string, 0, 2)
	if r.hasInPort {
		fields = append(fields, fmt.Sprintf("in_port=%v", r.inPort))
	}
	if r.dstMAC != nil {
		fields = append(fields, fmt.Sprintf("eth_dst=%v", r.dstMAC))
	}

	return strings.Join(fields, ",")
}
