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
	"errors"
	"net"
	"testing"
	"time"

	"github.com/superkkt/snooper/openflow"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	pkgerrors "github.com/pkg/errors"
)

type dummySender struct {
	rules     []openflow.FlowRule
	packets   []openflow.PacketOut
	ruleErr   error
	packetErr error
}

func (r *dummySender) InstallFlowRule(rule openflow.FlowRule) error {
	if r.ruleErr != nil {
		return r.ruleErr
	}
	r.rules = append(r.rules, rule)
	return nil
}

func (r *dummySender) EmitPacket(p openflow.PacketOut) error {
	if r.packetErr != nil {
		return r.packetErr
	}
	r.packets = append(r.packets, p)
	return nil
}

type dummyListener struct {
	output Output
	err    error
	groups []GroupEvent
}

func (r *dummyListener) OnSwitchConnect(ev SwitchConnect) (Output, error) {
	return Output{}, r.err
}

func (r *dummyListener) OnPacketIn(ev PacketIn) (Output, error) {
	return r.output, r.err
}

func (r *dummyListener) OnGroupEvent(ev GroupEvent) (Output, error) {
	r.groups = append(r.groups, ev)
	return Output{}, r.err
}

func unicastOutput(dpid openflow.DPID) Output {
	match := openflow.NewMatch()
	match.SetInPort(2)
	match.SetDstMAC(net.HardwareAddr{0xAA, 0, 0, 0, 0, 0x01})
	action := openflow.NewOutputAction(1)

	out := Output{}
	out.AddFlowRule(openflow.NewFlowRule(dpid, 1, match, action))
	out.AddPacketOut(openflow.NewPacketOut(dpid, 2, openflow.NoBuffer, []byte{0x01}, action))

	return out
}

func TestSwitchConnectInstallsTableMiss(t *testing.T) {
	sender := new(dummySender)
	controller := NewController(sender, 5*time.Second)
	controller.SetEventListener(new(dummyListener))

	if err := controller.OnSwitchConnect(SwitchConnect{DPID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.rules) != 1 || len(sender.packets) != 0 {
		t.Fatalf("unexpected requests: rules=%v, packets=%v", spew.Sdump(sender.rules), spew.Sdump(sender.packets))
	}
	expected := openflow.FlowRule{
		DPID:     1,
		Cookie:   openflow.TableMissCookie,
		Priority: 0,
		BufferID: openflow.NoBuffer,
		Match:    openflow.NewMatch(),
		Actions:  []openflow.Action{{Port: openflow.PortController, MaxLen: openflow.ControllerMaxLenNoBuffer}},
	}
	if diff := cmp.Diff(expected, sender.rules[0]); diff != "" {
		t.Fatalf("unexpected table-miss rule: diff=%v", diff)
	}

	devices := controller.Devices()
	if len(devices) != 1 || devices[0].DPID != 1 {
		t.Fatalf("unexpected devices: %v", spew.Sdump(devices))
	}
}

func TestSwitchConnectWithoutListener(t *testing.T) {
	sender := new(dummySender)
	controller := NewController(sender, 5*time.Second)

	if err := controller.OnSwitchConnect(SwitchConnect{DPID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.rules) != 1 || !sender.rules[0].IsTableMiss() {
		t.Fatalf("unexpected flow rules: %v", spew.Sdump(sender.rules))
	}
	// Reconnection should install the table-miss rule again.
	if err := controller.OnSwitchConnect(SwitchConnect{DPID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.rules) != 2 {
		t.Fatalf("unexpected number of flow rules: %v", len(sender.rules))
	}

	controller.OnSwitchDisconnect(7)
	if len(controller.Devices()) != 0 {
		t.Fatalf("unexpected devices: %v", spew.Sdump(controller.Devices()))
	}
}

func TestPacketInSubmitsOutput(t *testing.T) {
	sender := new(dummySender)
	controller := NewController(sender, 5*time.Second)
	controller.SetEventListener(&dummyListener{output: unicastOutput(1)})

	if err := controller.OnPacketIn(PacketIn{DPID: 1, InPort: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.rules) != 1 || len(sender.packets) != 1 {
		t.Fatalf("unexpected requests: rules=%v, packets=%v", len(sender.rules), len(sender.packets))
	}

	// The identical rule is not sent again while it is cached, but the packet is.
	if err := controller.OnPacketIn(PacketIn{DPID: 1, InPort: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.rules) != 1 || len(sender.packets) != 2 {
		t.Fatalf("unexpected requests: rules=%v, packets=%v", len(sender.rules), len(sender.packets))
	}

	// Reconnection purges the cache of the switch.
	if err := controller.OnSwitchConnect(SwitchConnect{DPID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := controller.OnPacketIn(PacketIn{DPID: 1, InPort: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// table-miss + the re-installed unicast rule
	if len(sender.rules) != 3 {
		t.Fatalf("unexpected number of flow rules: %v", len(sender.rules))
	}
}

func TestFlowCacheExpiration(t *testing.T) {
	sender := new(dummySender)
	controller := NewController(sender, 10*time.Millisecond)
	controller.SetEventListener(&dummyListener{output: unicastOutput(1)})

	for i := 0; i < 2; i++ {
		if err := controller.OnPacketIn(PacketIn{DPID: 1, InPort: 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(sender.rules) != 2 {
		t.Fatalf("unexpected number of flow rules: %v", len(sender.rules))
	}
}

func TestFlowCacheDistinguishesCookie(t *testing.T) {
	cache := newFlowCache(5 * time.Second)
	rule := unicastOutput(1).FlowRules[0]

	cache.Add(rule)
	if !cache.InProgress(rule.WithBuffer(9)) {
		t.Fatalf("expected the cached rule in progress: %v", rule)
	}
	if cache.InProgress(rule.WithCookie(0x10)) {
		t.Fatalf("unexpected cached rule with another cookie: %v", rule)
	}

	cache.RemoveDevice(1)
	if cache.InProgress(rule) {
		t.Fatalf("unexpected cached rule after removing the device: %v", rule)
	}
}

func TestSubmissionFault(t *testing.T) {
	fault := errors.New("connection reset")
	sender := &dummySender{ruleErr: fault}
	controller := NewController(sender, 5*time.Second)
	controller.SetEventListener(&dummyListener{output: unicastOutput(1)})

	err := controller.OnPacketIn(PacketIn{DPID: 1, InPort: 2})
	if err == nil {
		t.Fatal("expected error, but no error returns")
	}
	if pkgerrors.Cause(err) != fault {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.packets) != 0 {
		t.Fatalf("unexpected packets after the fault: %v", spew.Sdump(sender.packets))
	}

	// A failed rule is not cached, so the next event tries again.
	sender.ruleErr = nil
	if err := controller.OnPacketIn(PacketIn{DPID: 1, InPort: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.rules) != 1 || len(sender.packets) != 1 {
		t.Fatalf("unexpected requests: rules=%v, packets=%v", len(sender.rules), len(sender.packets))
	}
}

func TestListenerError(t *testing.T) {
	fault := errors.New("listener failure")
	sender := new(dummySender)
	controller := NewController(sender, 5*time.Second)
	controller.SetEventListener(&dummyListener{output: unicastOutput(1), err: fault})

	if err := controller.OnPacketIn(PacketIn{DPID: 1}); pkgerrors.Cause(err) != fault {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.rules) != 0 || len(sender.packets) != 0 {
		t.Fatal("unexpected requests after the listener failure")
	}
}

func TestGroupEventHasNoSideEffect(t *testing.T) {
	sender := new(dummySender)
	listener := new(dummyListener)
	controller := NewController(sender, 5*time.Second)
	controller.SetEventListener(listener)

	ev := GroupEvent{Reason: GroupAdded, Group: net.ParseIP("239.1.1.1"), DPID: 1, Source: 2, Members: []uint32{3}}
	if err := controller.OnGroupEvent(ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listener.groups) != 1 {
		t.Fatalf("unexpected number of group events: %v", len(listener.groups))
	}
	if len(sender.rules) != 0 || len(sender.packets) != 0 {
		t.Fatal("unexpected requests for a multicast group event")
	}
}

func TestPacketInWithoutListener(t *testing.T) {
	sender := new(dummySender)
	controller := NewController(sender, 5*time.Second)

	if err := controller.OnPacketIn(PacketIn{DPID: 1, InPort: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.rules) != 0 || len(sender.packets) != 0 {
		t.Fatal("unexpected requests without any listener")
	}
}

func TestGroupReason(t *testing.T) {
	src := []struct {
		Input    string
		Expected GroupReason
		Category string
	}{
		{"added", GroupAdded, "Multicast Group Added"},
		{"Changed", GroupMemberChanged, "Multicast Group Member Changed"},
		{" removed ", GroupRemoved, "Multicast Group Removed"},
	}

	for _, v := range src {
		reason, err := ParseGroupReason(v.Input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reason != v.Expected || reason.String() != v.Category || !reason.Valid() {
			t.Fatalf("unexpected reason: expected=%v, actual=%v", v.Expected, reason)
		}
	}
	if _, err := ParseGroupReason("joined"); err == nil {
		t.Fatal("expected error, but no error returns")
	}
	if GroupReason(0).Valid() {
		t.Fatal("zero reason should be invalid")
	}
}
