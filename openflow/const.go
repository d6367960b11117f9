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

// Reserved port numbers (OpenFlow 1.3).
const (
	PortMax        uint32 = 0xFFFFFF00
	PortInPort     uint32 = 0xFFFFFFF8
	PortFlood      uint32 = 0xFFFFFFFB
	PortAll        uint32 = 0xFFFFFFFC
	PortController uint32 = 0xFFFFFFFD
	PortAny        uint32 = 0xFFFFFFFF
)

const (
	// NoBuffer means the packet is not buffered on the switch.
	NoBuffer uint32 = 0xFFFFFFFF
	// ControllerMaxLenNoBuffer asks the switch to send the whole packet to the controller.
	ControllerMaxLenNoBuffer uint16 = 0xFFFF
	// We use MSB of the cookie to mark table-miss flows.
	TableMissCookie uint64 = 0x1 << 63
)
