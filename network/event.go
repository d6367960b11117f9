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

package network

import (
	"fmt"
	"net"
	"strings"

	"github.com/superkkt/snooper/openflow"
)

type SwitchConnect struct {
	DPID openflow.DPID
}

type PacketIn struct {
	DPID     openflow.DPID
	InPort   uint32
	BufferID uint32
	Data     []byte
	// Length is the number of bytes delivered in Data, and TotalLength is
	// the length of the original frame seen by the switch.
	Length      uint16
	TotalLength uint16
}

func (r PacketIn) IsTruncated() bool {
	return r.Length < r.TotalLength
}

type GroupReason int

const (
	GroupAdded GroupReason = iota + 1
	GroupMemberChanged
	GroupRemoved
)

func (r GroupReason) String() string {
	switch r {
	case GroupAdded:
		return "Multicast Group Added"
	case GroupMemberChanged:
		return "Multicast Group Member Changed"
	case GroupRemoved:
		return "Multicast Group Removed"
	default:
		return fmt.Sprintf("Unknown Multicast Group Reason (%d)", int(r))
	}
}

func (r GroupReason) Valid() bool {
	return r >= GroupAdded && r <= GroupRemoved
}

// ParseGroupReason accepts "added", "changed" and "removed".
func ParseGroupReason(s string) (GroupReason, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "added":
		return GroupAdded, nil
	case "changed":
		return GroupMemberChanged, nil
	case "removed":
		return GroupRemoved, nil
	default:
		return 0, fmt.Errorf("invalid multicast group reason: %v", s)
	}
}

// GroupEvent is a multicast group state change reported by the membership tracker.
type GroupEvent struct {
	Reason GroupReason
	Group  net.IP
	DPID   openflow.DPID
	// Source is the port facing the querier.
	Source uint32
	// Members are the ports that have listeners of the group.
	Members []uint32
}

func (r GroupEvent) String() string {
	return fmt.Sprintf("%v: [%v] DPID=%v, querier:[%v] hosts:%v", r.Reason, r.Group, r.DPID, r.Source, r.Members)
}
