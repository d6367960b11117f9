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

package protocol

import (
	"bytes"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"
)

var (
	ErrMalformedFrame = errors.New("malformed ethernet frame")

	broadcastMAC = net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// Ethernet holds the header fields needed for L2 switching.
type Ethernet struct {
	SrcMAC net.HardwareAddr
	DstMAC net.HardwareAddr
	Type   uint16
}

// DecodeEthernet decodes only the ethernet header of frame. The payload is not inspected.
func DecodeEthernet(frame []byte) (*Ethernet, error) {
	eth := new(layers.Ethernet)
	if err := eth.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return nil, errors.Wrap(ErrMalformedFrame, err.Error())
	}

	return &Ethernet{
		SrcMAC: clone(eth.SrcMAC),
		DstMAC: clone(eth.DstMAC),
		Type:   uint16(eth.EthernetType),
	}, nil
}

func clone(mac net.HardwareAddr) net.HardwareAddr {
	v := make(net.HardwareAddr, len(mac))
	copy(v, mac)

	return v
}

// IsLLDP reports whether the frame is a link layer discovery frame.
func (r *Ethernet) IsLLDP() bool {
	return r.Type == uint16(layers.EthernetTypeLinkLayerDiscovery)
}

func (r *Ethernet) IsBroadcast() bool {
	return bytes.Equal(r.DstMAC, broadcastMAC)
}

func (r *Ethernet) IsMulticast() bool {
	return len(r.DstMAC) > 0 && r.DstMAC[0]&0x01 == 0x01
}

func (r *Ethernet) String() string {
	return fmt.Sprintf("SrcMAC=%v, DstMAC=%v, Type=0x%04x", r.SrcMAC, r.DstMAC, r.Type)
}
