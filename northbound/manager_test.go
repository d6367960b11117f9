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

package northbound

import (
	"net"
	"testing"

	"github.com/superkkt/snooper/network"
	"github.com/superkkt/snooper/northbound/app/igmp"
	"github.com/superkkt/snooper/northbound/app/l2switch"
	"github.com/superkkt/snooper/openflow"

	"github.com/spf13/viper"
)

type dummyTracker struct {
	calls int
}

func (r *dummyTracker) SetQuerierMode(dpid openflow.DPID, serverPort uint32) error {
	r.calls++
	return nil
}

type dummyRecorder struct {
	records []igmp.Record
}

func (r *dummyRecorder) Record(v igmp.Record) error {
	r.records = append(r.records, v)
	return nil
}

type dummySender struct {
	listener network.EventListener
}

func (r *dummySender) SetEventListener(l network.EventListener) {
	r.listener = l
}

func TestManagerEnable(t *testing.T) {
	viper.Reset()
	tracker := new(dummyTracker)
	recorder := new(dummyRecorder)
	manager := NewManager(Config{
		Table:     l2switch.NewTable(),
		Tracker:   tracker,
		Recorders: []igmp.Recorder{recorder},
	})

	sender := new(dummySender)
	// Nothing is enabled yet.
	manager.AddEventSender(sender)
	if sender.listener != nil {
		t.Fatal("unexpected event listener without any application")
	}

	for _, name := range []string{"L2Switch", " igmp"} {
		if err := manager.Enable(name); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := manager.Enable("IGMP"); err == nil {
		t.Fatal("expected error for the duplicated application, but no error returns")
	}
	if err := manager.Enable("ProxyARP"); err == nil {
		t.Fatal("expected error for the unknown application, but no error returns")
	}
	if tracker.calls != 1 {
		t.Fatalf("unexpected number of querier mode calls: expected=1, actual=%v", tracker.calls)
	}

	manager.AddEventSender(sender)
	if sender.listener == nil {
		t.Fatal("expected event listener, but nothing is set")
	}

	// The group event passes through the L2 switch and reaches the IGMP monitor.
	ev := network.GroupEvent{Reason: network.GroupAdded, Group: net.ParseIP("239.0.0.1"), DPID: 1, Source: 2}
	out, err := sender.listener.OnGroupEvent(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsEmpty() {
		t.Fatalf("unexpected output: %v", out)
	}
	if len(recorder.records) != 1 {
		t.Fatalf("unexpected number of records: expected=1, actual=%v", len(recorder.records))
	}
}

func TestManagerPacketInReachesL2Switch(t *testing.T) {
	viper.Reset()
	table := l2switch.NewTable()
	manager := NewManager(Config{Table: table, Tracker: new(dummyTracker)})
	// The IGMP monitor comes first and passes PACKET_IN to the L2 switch.
	for _, name := range []string{"IGMP", "L2Switch"} {
		if err := manager.Enable(name); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	sender := new(dummySender)
	manager.AddEventSender(sender)

	data := []byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0x02, 0x00, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06,
	}
	out, err := sender.listener.OnPacketIn(network.PacketIn{DPID: 1, InPort: 3, BufferID: openflow.NoBuffer, Data: data})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Packets) != 1 {
		t.Fatalf("unexpected number of packets: expected=1, actual=%v", len(out.Packets))
	}
	if port, ok := table.Lookup(1, net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}); !ok || port != 3 {
		t.Fatalf("unexpected learned port: %v", port)
	}
}
