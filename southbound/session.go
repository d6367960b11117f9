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

package southbound

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/superkkt/snooper/network"
	"github.com/superkkt/snooper/openflow"
	"github.com/superkkt/snooper/openflow/of13"

	"github.com/contiv/libOpenflow/common"
	"github.com/contiv/libOpenflow/openflow13"
	"github.com/contiv/libOpenflow/util"
	"github.com/pkg/errors"
)

// AddConnection serves a new switch connection until it is closed or ctx is canceled.
func (r *Server) AddConnection(ctx context.Context, conn net.Conn) {
	go r.serve(ctx, conn)
}

func (r *Server) serve(ctx context.Context, conn net.Conn) {
	stream := util.NewMessageStream(conn, r)

	hello, err := common.NewHello(openflow13.VERSION)
	if err != nil {
		logger.Errorf("failed to create HELLO: %v", err)
		shutdown(stream)
		return
	}
	stream.Outbound <- hello

	dpid, err := handshake(ctx, stream)
	if err != nil {
		logger.Errorf("failed to negotiate with %v: %v", conn.RemoteAddr(), err)
		shutdown(stream)
		return
	}

	s := newSession(dpid, stream)
	r.register(s)
	defer s.close()

	handler := r.getHandler()
	if handler == nil {
		logger.Errorf("disconnecting DPID %v: no event handler", dpid)
		r.unregister(s)
		return
	}
	if err := handler.SwitchConnect(network.SwitchConnect{DPID: dpid}); err != nil {
		logger.Errorf("failed to deliver the switch connection (DPID=%v): %v", dpid, err)
	}

	r.receive(ctx, s, handler)

	if r.unregister(s) {
		if err := handler.SwitchDisconnect(dpid); err != nil {
			logger.Errorf("failed to deliver the switch disconnection (DPID=%v): %v", dpid, err)
		}
	}
}

// handshake waits for HELLO and FEATURES_REPLY, and returns the DPID of the switch.
func handshake(ctx context.Context, stream *util.MessageStream) (openflow.DPID, error) {
	timeout := time.After(handshakeTimeout)
	negotiated := false

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case err := <-stream.Error:
			return 0, err
		case <-timeout:
			return 0, errors.New("handshake timeout")
		case msg := <-stream.Inbound:
			switch m := msg.(type) {
			case *common.Hello:
				logger.Debugf("HELLO (ver=%v) is received", m.Version)
				if negotiated {
					continue
				}
				if m.Version != openflow13.VERSION {
					return 0, fmt.Errorf("unsupported OpenFlow version: %v", m.Version)
				}
				stream.Version = m.Version
				negotiated = true
				stream.Outbound <- openflow13.NewFeaturesRequest()
			case *openflow13.SwitchFeatures:
				if !negotiated {
					return 0, errors.New("FEATURES_REPLY on non-negotiated session")
				}
				logger.Debugf("FEATURES_REPLY (DPID=%v, NumBufs=%v, NumTables=%v)", m.DPID, m.Buffers, m.NumTables)
				return openflow.DPIDFromHardwareAddr(m.DPID)
			case *openflow13.ErrorMsg:
				return 0, fmt.Errorf("ERROR (type=%v, code=%v) during handshake", m.Type, m.Code)
			default:
				logger.Debugf("ignoring %T during handshake", msg)
			}
		}
	}
}

func (r *Server) receive(ctx context.Context, s *session, handler Handler) {
	idle := time.NewTimer(maxIdleTime)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debugf("closing the session of DPID %v", s.dpid)
			return
		case <-s.done:
			logger.Debugf("the session of DPID %v is replaced", s.dpid)
			return
		case err := <-s.stream.Error:
			logger.Infof("DPID %v is disconnected: %v", s.dpid, err)
			return
		case <-idle.C:
			if err := s.write(openflow13.NewEchoRequest()); err != nil {
				logger.Errorf("failed to send ECHO_REQUEST to DPID %v: %v", s.dpid, err)
				return
			}
			idle.Reset(maxIdleTime)
		case msg := <-s.stream.Inbound:
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(maxIdleTime)
			r.dispatch(s, handler, msg)
		}
	}
}

func (r *Server) dispatch(s *session, handler Handler, msg util.Message) {
	switch m := msg.(type) {
	case *common.Header:
		switch m.Type {
		case openflow13.Type_EchoRequest:
			reply := openflow13.NewEchoReply()
			reply.Xid = m.Xid
			if err := s.write(reply); err != nil {
				logger.Errorf("failed to send ECHO_REPLY to DPID %v: %v", s.dpid, err)
			}
		case openflow13.Type_EchoReply:
			logger.Debugf("ECHO_REPLY from DPID %v", s.dpid)
		default:
			logger.Debugf("ignoring message type %v from DPID %v", m.Type, s.dpid)
		}
	case *of13.PacketIn:
		ev, err := newPacketIn(s.dpid, m)
		if err != nil {
			logger.Errorf("invalid PACKET_IN from DPID %v: %v", s.dpid, err)
			return
		}
		if err := handler.PacketIn(ev); err != nil {
			logger.Errorf("failed to deliver PACKET_IN (DPID=%v): %v", s.dpid, err)
		}
	case *openflow13.ErrorMsg:
		// Is this the CHECK_OVERLAP error?
		if m.Type == 5 && m.Code == 1 {
			logger.Debug("FLOW_MOD is overlapped")
			return
		}
		logger.Errorf("ERROR (type=%v, code=%v) from DPID %v", m.Type, m.Code, s.dpid)
	default:
		logger.Debugf("ignoring %T from DPID %v", msg, s.dpid)
	}
}

func newPacketIn(dpid openflow.DPID, msg *of13.PacketIn) (network.PacketIn, error) {
	port, ok := of13.PacketInPort(msg)
	if !ok {
		return network.PacketIn{}, errors.New("missing in_port in the match")
	}

	return network.PacketIn{
		DPID:        dpid,
		InPort:      port,
		BufferID:    msg.BufferID,
		Data:        msg.Data,
		Length:      uint16(len(msg.Data)),
		TotalLength: msg.TotalLength,
	}, nil
}
