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

package api

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/superkkt/snooper/network"
	"github.com/superkkt/snooper/openflow"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/davecgh/go-spew/spew"
)

func (r *Server) listSwitch(w rest.ResponseWriter, req *rest.Request) {
	w.WriteJson(Response{Status: StatusOkay, Data: r.Controller.Devices()})
}

func (r *Server) listMAC(w rest.ResponseWriter, req *rest.Request) {
	dpid, err := openflow.ParseDPID(req.PathParam("dpid"))
	if err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}

	w.WriteJson(Response{Status: StatusOkay, Data: r.Table.Entries(dpid)})
}

func (r *Server) listGroup(w rest.ResponseWriter, req *rest.Request) {
	w.WriteJson(Response{Status: StatusOkay, Data: r.Groups.Groups()})
}

func (r *Server) getQuerierConfig(w rest.ResponseWriter, req *rest.Request) {
	querier, ok := r.getQuerier()
	if !ok {
		w.WriteJson(Response{Status: StatusNotFound, Message: "querier mode is not configured"})
		return
	}

	w.WriteJson(Response{Status: StatusOkay, Data: querier})
}

func (r *Server) addGroupEvent(w rest.ResponseWriter, req *rest.Request) {
	p := new(groupEventParam)
	if err := req.DecodeJsonPayload(p); err != nil {
		w.WriteJson(Response{Status: StatusInvalidParameter, Message: err.Error()})
		return
	}
	logger.Debugf("multicast group event from %v: %v", req.RemoteAddr, spew.Sdump(p))

	if err := r.Events.GroupEvent(network.GroupEvent(*p)); err != nil {
		w.WriteJson(Response{Status: StatusInternalServerError, Message: err.Error()})
		return
	}

	w.WriteJson(Response{Status: StatusOkay})
}

type groupEventParam network.GroupEvent

func (r *groupEventParam) UnmarshalJSON(data []byte) error {
	v := struct {
		Reason  string   `json:"reason"`
		Address string   `json:"address"`
		DPID    string   `json:"dpid"`
		Source  uint32   `json:"source"`
		Members []uint32 `json:"members"`
	}{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	reason, err := network.ParseGroupReason(v.Reason)
	if err != nil {
		return err
	}
	addr := net.ParseIP(v.Address)
	if addr == nil || !addr.IsMulticast() {
		return fmt.Errorf("invalid multicast group address: %v", v.Address)
	}
	dpid, err := openflow.ParseDPID(v.DPID)
	if err != nil {
		return err
	}

	r.Reason = reason
	r.Group = addr
	r.DPID = dpid
	r.Source = v.Source
	r.Members = v.Members

	return nil
}
