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
	"github.com/superkkt/snooper/openflow"
)

// Output is the set of requests an event handler wants to send to the switches.
type Output struct {
	FlowRules []openflow.FlowRule
	Packets   []openflow.PacketOut
}

func (r *Output) AddFlowRule(rule openflow.FlowRule) {
	r.FlowRules = append(r.FlowRules, rule)
}

func (r *Output) AddPacketOut(p openflow.PacketOut) {
	r.Packets = append(r.Packets, p)
}

func (r *Output) Append(o Output) {
	r.FlowRules = append(r.FlowRules, o.FlowRules...)
	r.Packets = append(r.Packets, o.Packets...)
}

func (r Output) IsEmpty() bool {
	return len(r.FlowRules) == 0 && len(r.Packets) == 0
}
