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
	"fmt"
	"sync"
	"time"

	"github.com/superkkt/snooper/network"
	"github.com/superkkt/snooper/openflow"
	"github.com/superkkt/snooper/openflow/of13"

	"github.com/contiv/libOpenflow/openflow13"
	"github.com/contiv/libOpenflow/util"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var (
	logger = logging.MustGetLogger("southbound")

	ErrUnknownDevice = errors.New("unknown device")
	ErrClosedDevice  = errors.New("already closed device")
)

const (
	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
	// An echo request is sent if nothing is received from the switch for this duration.
	maxIdleTime = 10 * time.Second
)

// Handler receives the events decoded from the switches.
type Handler interface {
	SwitchConnect(network.SwitchConnect) error
	SwitchDisconnect(openflow.DPID) error
	PacketIn(network.PacketIn) error
}

type session struct {
	dpid   openflow.DPID
	stream *util.MessageStream
	done   chan struct{}
	once   sync.Once
}

func newSession(dpid openflow.DPID, stream *util.MessageStream) *session {
	return &session{
		dpid:   dpid,
		stream: stream,
		done:   make(chan struct{}),
	}
}

func (r *session) close() {
	r.once.Do(func() {
		close(r.done)
		shutdown(r.stream)
	})
}

func (r *session) write(msg util.Message) error {
	select {
	case <-r.done:
		return errors.Wrap(ErrClosedDevice, fmt.Sprintf("DPID=%v", r.dpid))
	default:
	}

	select {
	case <-r.done:
		return errors.Wrap(ErrClosedDevice, fmt.Sprintf("DPID=%v", r.dpid))
	case r.stream.Outbound <- msg:
		return nil
	case <-time.After(writeTimeout):
		return errors.Wrap(ErrClosedDevice, fmt.Sprintf("write timeout (DPID=%v)", r.dpid))
	}
}

func shutdown(stream *util.MessageStream) {
	select {
	case stream.Shutdown <- true:
	default:
	}
}

// Server speaks OpenFlow 1.3 with the switches using the libOpenflow message streams.
// It implements network.Sender.
type Server struct {
	mutex    sync.RWMutex
	handler  Handler
	sessions map[openflow.DPID]*session
}

func NewServer() *Server {
	return &Server{
		sessions: make(map[openflow.DPID]*session),
	}
}

func (r *Server) SetHandler(h Handler) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.handler = h
}

func (r *Server) getHandler() Handler {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.handler
}

// Parse implements util.Parser for the message streams. PACKET_IN keeps the
// raw frame bytes, and a panic inside libOpenflow is returned as an error.
func (r *Server) Parse(b []byte) (msg util.Message, err error) {
	defer func() {
		if v := recover(); v != nil {
			msg, err = nil, fmt.Errorf("malformed OpenFlow message: %v", v)
		}
	}()

	if len(b) < 8 {
		return nil, fmt.Errorf("too short OpenFlow message: length=%v", len(b))
	}
	if b[0] != openflow13.VERSION {
		return nil, fmt.Errorf("unsupported OpenFlow version: %v", b[0])
	}
	if b[1] == openflow13.Type_PacketIn {
		p := new(of13.PacketIn)
		if err := p.UnmarshalBinary(b); err != nil {
			return nil, err
		}
		return p, nil
	}

	return openflow13.Parse(b)
}

func (r *Server) session(dpid openflow.DPID) (*session, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	s, ok := r.sessions[dpid]
	return s, ok
}

// register adds s, disconnecting the previous session of the same switch if it exists.
// Some switches make a new connection without closing the stale one.
func (r *Server) register(s *session) {
	r.mutex.Lock()
	prev, ok := r.sessions[s.dpid]
	r.sessions[s.dpid] = s
	r.mutex.Unlock()

	if ok {
		logger.Warningf("disconnecting the previous session of DPID %v", s.dpid)
		prev.close()
	}
}

// unregister removes s and reports whether s was the current session of the switch.
func (r *Server) unregister(s *session) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.sessions[s.dpid] != s {
		return false
	}
	delete(r.sessions, s.dpid)

	return true
}

func (r *Server) send(dpid openflow.DPID, msg util.Message) error {
	s, ok := r.session(dpid)
	if !ok {
		return errors.Wrap(ErrUnknownDevice, fmt.Sprintf("DPID=%v", dpid))
	}

	return s.write(msg)
}

func (r *Server) InstallFlowRule(rule openflow.FlowRule) error {
	msg, err := of13.NewFlowMod(rule)
	if err != nil {
		return err
	}

	return r.send(rule.DPID, msg)
}

func (r *Server) EmitPacket(p openflow.PacketOut) error {
	return r.send(p.DPID, of13.NewPacketOut(p))
}

// Devices returns the DPIDs of the connected switches.
func (r *Server) Devices() []openflow.DPID {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]openflow.DPID, 0, len(r.sessions))
	for dpid := range r.sessions {
		result = append(result, dpid)
	}

	return result
}
