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

// FlowRule describes a flow entry to be added on a switch.
type FlowRule struct {
	DPID        DPID
	Cookie      uint64
	TableID     uint8
	Priority    uint16
	IdleTimeout uint16 // Seconds. Zero means no timeout.
	HardTimeout uint16 // Seconds. Zero means no timeout.
	// BufferID is the buffered packet to apply the rule to, or NoBuffer.
	BufferID uint32
	Match    Match
	Actions  []Action
}

// NewFlowRule returns a permanent flow rule for table 0 without any buffered packet.
func NewFlowRule(dpid DPID, priority uint16, match Match, actions ...Action) FlowRule {
	return FlowRule{
		DPID:     dpid,
		Priority: priority,
		BufferID: NoBuffer,
		Match:    match,
		Actions:  actions,
	}
}

// WithBuffer makes the switch apply the rule to the buffered packet id as well.
func (r FlowRule) WithBuffer(id uint32) FlowRule {
	r.BufferID = id
	return r
}

func (r FlowRule) WithIdleTimeout(sec uint16) FlowRule {
	r.IdleTimeout = sec
	return r
}

func (r FlowRule) WithHardTimeout(sec uint16) FlowRule {
	r.HardTimeout = sec
	return r
}

func (r FlowRule) WithTableID(id uint8) FlowRule {
	r.TableID = id
	return r
}

func (r FlowRule) WithCookie(cookie uint64) FlowRule {
	r.Cookie = cookie
	return r
}

func (r FlowRule) HasBuffer() bool {
	return r.BufferID != NoBuffer
}

func (r FlowRule) IsTableMiss() bool {
	return r.Cookie&TableMissCookie != 0
}

// Equal reports whether r and other describe the same flow entry on the same switch.
// BufferID is ignored because it only applies to the first packet.
func (r FlowRule) Equal(other FlowRule) bool {
	if r.DPID != other.DPID || r.Cookie != other.Cookie || r.TableID != other.TableID || r.Priority != other.Priority {
		return false
	}
	if r.IdleTimeout != other.IdleTimeout || r.HardTimeout != other.HardTimeout {
		return false
	}
	if !r.Match.Equal(other.Match) || len(r.Actions) != len(other.Actions) {
		return false
	}
	for i := range r.Actions {
		if r.Actions[i] != other.Actions[i] {
			return false
		}
	}

	return true
}

func (r FlowRule) String() string {
	return fmt.Sprintf("DPID=%v, TableID=%v, Priority=%v, Match=%v, Actions=%v, IdleTimeout=%v, HardTimeout=%v, Buffered=%v",
		r.DPID, r.TableID, r.Priority, r.Match, r.Actions, r.IdleTimeout, r.HardTimeout, r.HasBuffer())
}
