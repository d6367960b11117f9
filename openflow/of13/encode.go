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

// Package of13 translates flow rules and packet-outs into OpenFlow 1.3 messages.
package of13

import (
	"github.com/superkkt/snooper/openflow"

	"github.com/contiv/libOpenflow/openflow13"
	"github.com/contiv/libOpenflow/util"
	"github.com/pkg/errors"
)

// NewFlowMod returns an OFPFC_ADD FLOW_MOD whose actions are applied immediately.
func NewFlowMod(rule openflow.FlowRule) (*openflow13.FlowMod, error) {
	msg := openflow13.NewFlowMod()
	msg.Command = openflow13.FC_ADD
	msg.Cookie = rule.Cookie
	msg.TableId = rule.TableID
	msg.Priority = rule.Priority
	msg.IdleTimeout = rule.IdleTimeout
	msg.HardTimeout = rule.HardTimeout
	msg.BufferId = rule.BufferID
	msg.Match = newMatch(rule.Match)

	inst := openflow13.NewInstrApplyActions()
	for _, v := range rule.Actions {
		if err := inst.AddAction(newOutputAction(v), false); err != nil {
			return nil, errors.Wrap(err, "adding an output action")
		}
	}
	msg.AddInstruction(inst)

	return msg, nil
}

// NewPacketOut returns a PACKET_OUT. Data is attached only if the packet is not buffered.
func NewPacketOut(p openflow.PacketOut) *openflow13.PacketOut {
	msg := openflow13.NewPacketOut()
	msg.InPort = p.InPort
	msg.BufferId = p.BufferID
	for _, v := range p.Actions {
		msg.AddAction(newOutputAction(v))
	}
	if p.BufferID == openflow.NoBuffer && p.Data != nil {
		msg.Data = util.NewBuffer(p.Data)
	}

	return msg
}

func newMatch(m openflow.Match) openflow13.Match {
	match := openflow13.NewMatch()
	if port, ok := m.InPort(); ok {
		match.AddField(*openflow13.NewInPortField(port))
	}
	if mac, ok := m.DstMAC(); ok {
		match.AddField(*openflow13.NewEthDstField(mac, nil))
	}

	return *match
}

func newOutputAction(a openflow.Action) *openflow13.ActionOutput {
	v := openflow13.NewActionOutput(a.Port)
	if a.Port == openflow.PortController {
		v.MaxLen = a.MaxLen
	}

	return v
}
