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

package of13

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"

	"github.com/superkkt/snooper/openflow"

	"github.com/contiv/libOpenflow/openflow13"
	"github.com/davecgh/go-spew/spew"
)

func TestReservedValues(t *testing.T) {
	if openflow.PortFlood != openflow13.P_FLOOD {
		t.Fatalf("unexpected flood port: %x", openflow.PortFlood)
	}
	if openflow.PortController != openflow13.P_CONTROLLER {
		t.Fatalf("unexpected controller port: %x", openflow.PortController)
	}
	if openflow.ControllerMaxLenNoBuffer != openflow13.OFPCML_NO_BUFFER {
		t.Fatalf("unexpected max_len: %x", openflow.ControllerMaxLenNoBuffer)
	}
}

func outputActions(t *testing.T, msg *openflow13.FlowMod) []*openflow13.ActionOutput {
	if len(msg.Instructions) != 1 {
		t.Fatalf("unexpected number of instructions: %v", len(msg.Instructions))
	}
	inst, ok := msg.Instructions[0].(*openflow13.InstrActions)
	if !ok {
		t.Fatalf("unexpected instruction: %v", spew.Sdump(msg.Instructions[0]))
	}

	result := make([]*openflow13.ActionOutput, 0)
	for _, v := range inst.Actions {
		out, ok := v.(*openflow13.ActionOutput)
		if !ok {
			t.Fatalf("unexpected action: %v", spew.Sdump(v))
		}
		result = append(result, out)
	}

	return result
}

func TestNewFlowModUnicast(t *testing.T) {
	dst := net.HardwareAddr{0xAA, 0, 0, 0, 0, 0x01}
	match := openflow.NewMatch()
	match.SetInPort(2)
	match.SetDstMAC(dst)
	rule := openflow.NewFlowRule(1, 1, match, openflow.NewOutputAction(1))

	msg, err := NewFlowMod(rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Command != openflow13.FC_ADD || msg.Priority != 1 || msg.TableId != 0 {
		t.Fatalf("unexpected FLOW_MOD: %v", spew.Sdump(msg))
	}
	if msg.IdleTimeout != 0 || msg.HardTimeout != 0 || msg.BufferId != openflow.NoBuffer {
		t.Fatalf("unexpected FLOW_MOD: %v", spew.Sdump(msg))
	}

	if len(msg.Match.Fields) != 2 {
		t.Fatalf("unexpected number of match fields: %v", len(msg.Match.Fields))
	}
	inPort, ok := msg.Match.Fields[0].Value.(*openflow13.InPortField)
	if !ok || inPort.InPort != 2 {
		t.Fatalf("unexpected in_port field: %v", spew.Sdump(msg.Match.Fields[0]))
	}
	ethDst, ok := msg.Match.Fields[1].Value.(*openflow13.EthDstField)
	if !ok || !bytes.Equal(ethDst.EthDst, dst) {
		t.Fatalf("unexpected eth_dst field: %v", spew.Sdump(msg.Match.Fields[1]))
	}

	actions := outputActions(t, msg)
	if len(actions) != 1 || actions[0].Port != 1 {
		t.Fatalf("unexpected output actions: %v", spew.Sdump(actions))
	}

	b, err := msg.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal FLOW_MOD: %v", err)
	}
	if b[0] != openflow13.VERSION || b[1] != openflow13.Type_FlowMod {
		t.Fatalf("unexpected FLOW_MOD header: version=%v, type=%v", b[0], b[1])
	}
}

func TestNewFlowModTableMiss(t *testing.T) {
	rule := openflow.NewFlowRule(1, 0, openflow.NewMatch(), openflow.NewControllerAction()).WithCookie(openflow.TableMissCookie)

	msg, err := NewFlowMod(rule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Priority != 0 || len(msg.Match.Fields) != 0 || msg.Cookie != openflow.TableMissCookie {
		t.Fatalf("unexpected table-miss FLOW_MOD: %v", spew.Sdump(msg))
	}
	actions := outputActions(t, msg)
	if len(actions) != 1 || actions[0].Port != openflow13.P_CONTROLLER || actions[0].MaxLen != openflow13.OFPCML_NO_BUFFER {
		t.Fatalf("unexpected output actions: %v", spew.Sdump(actions))
	}
}

func TestNewPacketOut(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xAA, 0, 0, 0, 0, 0x01, 0x08, 0x06}

	msg := NewPacketOut(openflow.NewPacketOut(1, 3, openflow.NoBuffer, data, openflow.NewOutputAction(openflow.PortFlood)))
	if msg.InPort != 3 || msg.BufferId != openflow.NoBuffer {
		t.Fatalf("unexpected PACKET_OUT: %v", spew.Sdump(msg))
	}
	if len(msg.Actions) != 1 {
		t.Fatalf("unexpected number of actions: %v", len(msg.Actions))
	}
	if out, ok := msg.Actions[0].(*openflow13.ActionOutput); !ok || out.Port != openflow13.P_FLOOD {
		t.Fatalf("unexpected action: %v", spew.Sdump(msg.Actions[0]))
	}
	if msg.Data == nil {
		t.Fatal("expected packet data, but nil")
	}

	msg = NewPacketOut(openflow.NewPacketOut(1, 3, 42, data, openflow.NewOutputAction(2)))
	if msg.BufferId != 42 || msg.Data != nil {
		t.Fatalf("unexpected buffered PACKET_OUT: %v", spew.Sdump(msg))
	}
}

// packetIn builds a PACKET_IN wire message with the given OXM fields and frame.
func packetIn(bufferID uint32, totalLength uint16, fields, frame []byte) []byte {
	matchLength := 4 + len(fields)
	padded := (matchLength + 7) / 8 * 8
	b := make([]byte, 24+padded+2+len(frame))
	b[0] = openflow13.VERSION
	b[1] = openflow13.Type_PacketIn
	binary.BigEndian.PutUint16(b[2:4], uint16(len(b)))
	binary.BigEndian.PutUint32(b[4:8], 9)
	binary.BigEndian.PutUint32(b[8:12], bufferID)
	binary.BigEndian.PutUint16(b[12:14], totalLength)
	binary.BigEndian.PutUint16(b[24:26], openflow13.MatchType_OXM)
	binary.BigEndian.PutUint16(b[26:28], uint16(matchLength))
	copy(b[28:], fields)
	copy(b[24+padded+2:], frame)

	return b
}

func inPortField(port uint32) []byte {
	b := []byte{0x80, 0x00, openflow13.OXM_FIELD_IN_PORT << 1, 4, 0, 0, 0, 0}
	binary.BigEndian.PutUint32(b[4:], port)
	return b
}

// IGMPv2 membership report for 239.1.1.1 with the router alert option (IHL=6).
var igmpFrame = []byte{
	0x01, 0x00, 0x5E, 0x01, 0x01, 0x01, 0x02, 0x00, 0x00, 0x00, 0x00, 0x01, 0x08, 0x00,
	0x46, 0xC0, 0x00, 0x20, 0x00, 0x00, 0x40, 0x00, 0x01, 0x02, 0x00, 0x00,
	0x0A, 0x00, 0x00, 0x01, 0xEF, 0x01, 0x01, 0x01,
	0x94, 0x04, 0x00, 0x00,
	0x16, 0x00, 0x00, 0x00, 0xEF, 0x01, 0x01, 0x01,
}

func TestPacketInUnmarshal(t *testing.T) {
	// in_port followed by eth_type.
	fields := append(inPortField(5), 0x80, 0x00, openflow13.OXM_FIELD_ETH_TYPE<<1, 2, 0x08, 0x00)
	// IP version/IHL byte is 0x44.
	badIHL := append([]byte(nil), igmpFrame...)
	badIHL[14] = 0x44

	src := []struct {
		data      []byte
		inPort    uint32
		hasInPort bool
		frame     []byte
	}{
		{packetIn(openflow.NoBuffer, 46, inPortField(3), igmpFrame), 3, true, igmpFrame},
		{packetIn(openflow.NoBuffer, 46, fields, igmpFrame), 5, true, igmpFrame},
		{packetIn(openflow.NoBuffer, 46, inPortField(3), badIHL), 3, true, badIHL},
		{packetIn(openflow.NoBuffer, 0, nil, nil), 0, false, []byte{}},
	}

	for _, v := range src {
		msg := new(PacketIn)
		if err := msg.UnmarshalBinary(v.data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Len() != uint16(len(v.data)) || msg.BufferID != openflow.NoBuffer || msg.Xid != 9 {
			t.Fatalf("unexpected PACKET_IN: %v", spew.Sdump(msg))
		}
		port, ok := PacketInPort(msg)
		if port != v.inPort || ok != v.hasInPort {
			t.Fatalf("unexpected in_port: expected=%v/%v, actual=%v/%v", v.inPort, v.hasInPort, port, ok)
		}
		if !bytes.Equal(msg.Data, v.frame) {
			t.Fatalf("unexpected frame: expected=%x, actual=%x", v.frame, msg.Data)
		}
	}
}

func TestPacketInUnmarshalMalformed(t *testing.T) {
	valid := packetIn(openflow.NoBuffer, 46, inPortField(3), igmpFrame)

	shortLength := append([]byte(nil), valid...)
	binary.BigEndian.PutUint16(shortLength[2:4], 30)
	zeroMatch := append([]byte(nil), valid...)
	binary.BigEndian.PutUint16(zeroMatch[26:28], 0)
	hugeMatch := append([]byte(nil), valid...)
	binary.BigEndian.PutUint16(hugeMatch[26:28], 0xFFF0)
	overflowField := append([]byte(nil), valid...)
	overflowField[31] = 0xFF
	badInPort := packetIn(openflow.NoBuffer, 46, []byte{0x80, 0x00, 0x00, 2, 0, 3}, igmpFrame)
	echo, err := openflow13.NewEchoRequest().MarshalBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := [][]byte{
		nil,
		valid[:20],
		shortLength,
		zeroMatch,
		hugeMatch,
		overflowField,
		badInPort,
		echo,
	}

	for i, v := range src {
		if err := new(PacketIn).UnmarshalBinary(v); err == nil {
			t.Fatalf("expected error for case #%v, but no error returns", i)
		}
	}
}

func TestPacketInMarshal(t *testing.T) {
	if _, err := new(PacketIn).MarshalBinary(); err == nil {
		t.Fatal("expected error, but no error returns")
	}
}

func TestPacketInDataIsCopied(t *testing.T) {
	b := packetIn(openflow.NoBuffer, 46, inPortField(3), igmpFrame)
	msg := new(PacketIn)
	if err := msg.UnmarshalBinary(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range b {
		b[i] = 0
	}
	if !bytes.Equal(msg.Data, igmpFrame) {
		t.Fatalf("frame changed with the read buffer: %x", msg.Data)
	}
}
