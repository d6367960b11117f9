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
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DPID is the datapath ID that identifies a switch.
type DPID uint64

func (r DPID) String() string {
	return fmt.Sprintf("%016x", uint64(r))
}

// ParseDPID parses a hexadecimal DPID such as "0000000000000001" or "00:00:00:00:00:00:00:01".
func ParseDPID(s string) (DPID, error) {
	v := strings.Replace(strings.TrimSpace(s), ":", "", -1)
	if len(v) == 0 || len(v) > 16 {
		return 0, fmt.Errorf("invalid DPID: %v", s)
	}
	id, err := strconv.ParseUint(v, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid DPID: %v", s)
	}

	return DPID(id), nil
}

// DPIDFromHardwareAddr converts the 8-byte DPID reported in FEATURES_REPLY.
func DPIDFromHardwareAddr(addr net.HardwareAddr) (DPID, error) {
	if len(addr) != 8 {
		return 0, fmt.Errorf("invalid DPID length: %v", len(addr))
	}

	return DPID(binary.BigEndian.Uint64(addr)), nil
}

func (r DPID) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *DPID) UnmarshalText(text []byte) error {
	v, err := ParseDPID(string(text))
	if err != nil {
		return err
	}
	*r = v

	return nil
}
