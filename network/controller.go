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
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/superkkt/snooper/openflow"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("network")
)

// EventListener is implemented by the north-bound applications. Listeners never send
// anything by themselves; they return the requests and the controller submits them.
type EventListener interface {
	OnSwitchConnect(SwitchConnect) (Output, error)
	OnPacketIn(PacketIn) (Output, error)
	OnGroupEvent(GroupEvent) (Output, error)
}

// Sender delivers requests to the switches.
type Sender interface {
	InstallFlowRule(openflow.FlowRule) error
	EmitPacket(openflow.PacketOut) error
}

type Device struct {
	DPID        openflow.DPID `json:"dpid"`
	ConnectedAt time.Time     `json:"connected_at"`
}

type Controller struct {
	mutex    sync.RWMutex
	listener EventListener
	sender   Sender
	devices  map[openflow.DPID]time.Time
	cache    *flowCache
}

func NewController(sender Sender, cacheExpiration time.Duration) *Controller {
	if sender == nil {
		panic("nil sender")
	}

	return &Controller{
		sender:  sender,
		devices: make(map[openflow.DPID]time.Time),
		cache:   newFlowCache(cacheExpiration),
	}
}

func (r *Controller) SetEventListener(l EventListener) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.listener = l
}

func (r *Controller) getListener() EventListener {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.listener
}

func (r *Controller) OnSwitchConnect(ev SwitchConnect) error {
	logger.Infof("switch is connected: DPID=%v", ev.DPID)

	r.mutex.Lock()
	r.devices[ev.DPID] = time.Now()
	r.mutex.Unlock()
	// The switch has lost its flows if it is reconnected.
	r.cache.RemoveDevice(ev.DPID)

	out := Output{}
	out.AddFlowRule(tableMissRule(ev.DPID))

	if l := r.getListener(); l != nil {
		v, err := l.OnSwitchConnect(ev)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("handling the switch connection (DPID=%v)", ev.DPID))
		}
		out.Append(v)
	}

	return r.submit(out)
}

func (r *Controller) OnSwitchDisconnect(dpid openflow.DPID) {
	logger.Infof("switch is disconnected: DPID=%v", dpid)

	r.mutex.Lock()
	delete(r.devices, dpid)
	r.mutex.Unlock()
	r.cache.RemoveDevice(dpid)
}

func (r *Controller) OnPacketIn(ev PacketIn) error {
	l := r.getListener()
	if l == nil {
		logger.Debugf("ignoring PACKET_IN: no event listener (DPID=%v)", ev.DPID)
		return nil
	}

	out, err := l.OnPacketIn(ev)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("handling PACKET_IN (DPID=%v, InPort=%v)", ev.DPID, ev.InPort))
	}

	return r.submit(out)
}

func (r *Controller) OnGroupEvent(ev GroupEvent) error {
	l := r.getListener()
	if l == nil {
		logger.Debugf("ignoring multicast group event: no event listener (%v)", ev)
		return nil
	}

	out, err := l.OnGroupEvent(ev)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("handling the multicast group event (%v)", ev))
	}

	return r.submit(out)
}

// submit sends the requests in order. It stops at the first failure without retry.
func (r *Controller) submit(out Output) error {
	for _, rule := range out.FlowRules {
		cacheable := rule.IsTableMiss() == false
		if cacheable && r.cache.InProgress(rule) {
			logger.Debugf("skip to install the duplicated flow rule: %v", rule)
			continue
		}
		if err := r.sender.InstallFlowRule(rule); err != nil {
			return errors.Wrap(err, fmt.Sprintf("installing a flow rule (%v)", rule))
		}
		if cacheable {
			r.cache.Add(rule)
		}
		logger.Debugf("installed a flow rule: %v", rule)
	}

	for _, p := range out.Packets {
		if err := r.sender.EmitPacket(p); err != nil {
			return errors.Wrap(err, fmt.Sprintf("sending a packet (%v)", p))
		}
		logger.Debugf("sent a packet: %v", p)
	}

	return nil
}

// Devices returns the connected switches ordered by DPID.
func (r *Controller) Devices() []Device {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Device, 0, len(r.devices))
	for dpid, t := range r.devices {
		result = append(result, Device{DPID: dpid, ConnectedAt: t})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DPID < result[j].DPID })

	return result
}

func (r *Controller) String() string {
	var buf bytes.Buffer
	for _, v := range r.Devices() {
		buf.WriteString(fmt.Sprintf("Device DPID=%v, ConnectedAt=%v\n", v.DPID, v.ConnectedAt))
	}

	return buf.String()
}
