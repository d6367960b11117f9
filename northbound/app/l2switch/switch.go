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
	"fmt"

	"github.com/superkkt/snooper/network"
	"github.com/superkkt/snooper/northbound/app"
	"github.com/superkkt/snooper/openflow"
	"github.com/superkkt/snooper/protocol"

	"github.com/op/go-logging"
)

var (
	logger = logging.MustGetLogger("l2switch")
)

const unicastPriority = 1

type L2Switch struct {
	app.BaseProcessor
	table *Table
}

func New(table *Table) *L2Switch {
	if table == nil {
		panic("nil forwarding table")
	}

	return &L2Switch{
		table: table,
	}
}

func (r *L2Switch) Init() error {
	return nil
}

func (r *L2Switch) Name() string {
	return "L2Switch"
}

// OnPacketIn consumes every PACKET_IN, so the next processors never see it.
func (r *L2Switch) OnPacketIn(ev network.PacketIn) (network.Output, error) {
	return r.processPacket(ev), nil
}

func (r *L2Switch) processPacket(ev network.PacketIn) network.Output {
	eth, err := protocol.DecodeEthernet(ev.Data)
	if err != nil {
		logger.Debugf("dropping PACKET_IN: DPID=%v, InPort=%v: %v", ev.DPID, ev.InPort, err)
		return network.Output{}
	}
	// Ignore LLDP packets.
	if eth.IsLLDP() {
		return network.Output{}
	}
	if ev.IsTruncated() {
		logger.Warningf("packet truncated: only %v of %v bytes (DPID=%v, InPort=%v)", ev.Length, ev.TotalLength, ev.DPID, ev.InPort)
	}
	logger.Infof("in: %v %04x %v %v %v", ev.DPID, eth.Type, eth.SrcMAC, eth.DstMAC, ev.InPort)

	action := openflow.NewOutputAction(r.outPort(ev, eth))

	out := network.Output{}
	if !action.IsFlood() {
		match := openflow.NewMatch()
		match.SetInPort(ev.InPort)
		match.SetDstMAC(eth.DstMAC)
		out.AddFlowRule(openflow.NewFlowRule(ev.DPID, unicastPriority, match, action))
	}
	out.AddPacketOut(openflow.NewPacketOut(ev.DPID, ev.InPort, ev.BufferID, ev.Data, action))

	return out
}

func (r *L2Switch) outPort(ev network.PacketIn, eth *protocol.Ethernet) uint32 {
	// Group-addressed frames always flood.
	if eth.IsMulticast() {
		r.table.Learn(ev.DPID, eth.SrcMAC, ev.InPort)
		if eth.IsBroadcast() {
			logger.Debugf("broadcast! flooding.. SrcMAC=%v", eth.SrcMAC)
		} else {
			logger.Debugf("multicast destination! flooding.. SrcMAC=%v, DstMAC=%v", eth.SrcMAC, eth.DstMAC)
		}
		return openflow.PortFlood
	}

	port, ok := r.table.LearnAndLookup(ev.DPID, eth.SrcMAC, ev.InPort, eth.DstMAC)
	if !ok {
		logger.Debugf("unknown destination! flooding.. SrcMAC=%v, DstMAC=%v", eth.SrcMAC, eth.DstMAC)
		return openflow.PortFlood
	}

	return port
}

func (r *L2Switch) String() string {
	return fmt.Sprintf("%v", r.Name())
}
