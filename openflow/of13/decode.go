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
	"encoding/binary"
	"fmt"

	"github.com/contiv/libOpenflow/common"
	"github.com/contiv/libOpenflow/openflow13"
	"github.com/pkg/errors"
)

const (
	packetInMatchOffset = 24
	// ofp_match type (2 bytes) and length (2 bytes).
	matchHeaderLength = 4
	oxmHeaderLength   = 4
	// Padding between the match and the ethernet frame.
	packetInPadLength = 2
)

// PacketIn is an OpenFlow 1.3 PACKET_IN whose ethernet frame is kept as the
// raw bytes received from the switch. The frame is never decoded here.
type PacketIn struct {
	common.Header
	BufferID    uint32
	TotalLength uint16
	Reason      uint8
	TableID     uint8
	Cookie      uint64
	Data        []byte
	inPort      uint32
	hasInPort   bool
}

func (r *PacketIn) Len() uint16 {
	return r.Header.Length
}

func (r *PacketIn) MarshalBinary() ([]byte, error) {
	return nil, errors.New("PACKET_IN is not sent by a controller")
}

// UnmarshalBinary decodes a PACKET_IN message. Data gets a copy of the frame
// because the message streams reuse their read buffers.
func (r *PacketIn) UnmarshalBinary(data []byte) error {
	if len(data) < packetInMatchOffset+matchHeaderLength {
		return fmt.Errorf("too short PACKET_IN: length=%v", len(data))
	}
	r.Version = data[0]
	r.Type = data[1]
	r.Length = binary.BigEndian.Uint16(data[2:4])
	r.Xid = binary.BigEndian.Uint32(data[4:8])
	if r.Type != openflow13.Type_PacketIn {
		return fmt.Errorf("unexpected message type for PACKET_IN: %v", r.Type)
	}
	if int(r.Length) != len(data) {
		return fmt.Errorf("mismatched PACKET_IN length: header=%v, actual=%v", r.Length, len(data))
	}
	r.BufferID = binary.BigEndian.Uint32(data[8:12])
	r.TotalLength = binary.BigEndian.Uint16(data[12:14])
	r.Reason = data[14]
	r.TableID = data[15]
	r.Cookie = binary.BigEndian.Uint64(data[16:24])

	matchLength := int(binary.BigEndian.Uint16(data[packetInMatchOffset+2 : packetInMatchOffset+4]))
	if matchLength < matchHeaderLength {
		return fmt.Errorf("invalid PACKET_IN match length: %v", matchLength)
	}
	// The match is padded to a multiple of 8 bytes.
	offset := packetInMatchOffset + (matchLength+7)/8*8
	if offset+packetInPadLength > len(data) {
		return fmt.Errorf("PACKET_IN match overflows the message: match=%v, length=%v", matchLength, len(data))
	}
	if err := r.decodeMatch(data[packetInMatchOffset+matchHeaderLength : packetInMatchOffset+matchLength]); err != nil {
		return err
	}
	frame := data[offset+packetInPadLength:]
	r.Data = make([]byte, len(frame))
	copy(r.Data, frame)

	return nil
}

// decodeMatch walks the OXM fields of the match and keeps in_port only.
func (r *PacketIn) decodeMatch(data []byte) error {
	r.inPort, r.hasInPort = 0, false

	for n := 0; n < len(data); {
		if len(data)-n < oxmHeaderLength {
			return fmt.Errorf("truncated OXM header at offset %v", n)
		}
		class := binary.BigEndian.Uint16(data[n : n+2])
		field := data[n+2] >> 1
		length := int(data[n+3])
		value := data[n+oxmHeaderLength:]
		if length > len(value) {
			return fmt.Errorf("OXM field overflows the match: field=%v, length=%v", field, length)
		}
		if class == openflow13.OXM_CLASS_OPENFLOW_BASIC && field == openflow13.OXM_FIELD_IN_PORT {
			if length != 4 {
				return fmt.Errorf("invalid in_port length: %v", length)
			}
			r.inPort = binary.BigEndian.Uint32(value[:4])
			r.hasInPort = true
		}
		n += oxmHeaderLength + length
	}

	return nil
}

// PacketInPort returns the ingress port carried in the OXM match of a PACKET_IN.
func PacketInPort(msg *PacketIn) (port uint32, ok bool) {
	return msg.inPort, msg.hasInPort
}
