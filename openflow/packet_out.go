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
	"fmt"
)

type PacketOut struct {
	DPID     DPID
	InPort   uint32
	BufferID uint32
	Actions  []Action
	// Data is nil if the packet is buffered on the switch.
	Data []byte
}

// NewPacketOut carries the raw packet only when it is not buffered on the switch.
func NewPacketOut(dpid DPID, inPort, bufferID uint32, data []byte, actions ...Action) PacketOut {
	v := PacketOut{
		DPID:     dpid,
		InPort:   inPort,
		BufferID: bufferID,
		Actions:  actions,
	}
	if bufferID == NoBuffer {
		v.Data = data
	}

	return v
}

func (r PacketOut) String() string {
	return fmt.Sprintf("DPID=%v, InPort=%v, BufferID=%v, Actions=%v, DataLen=%v", r.DPID, r.InPort, r.BufferID, r.Actions, len(r.Data))
}
