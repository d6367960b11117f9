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
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/superkkt/snooper/network"
	"github.com/superkkt/snooper/northbound/app/igmp"
	"github.com/superkkt/snooper/northbound/app/l2switch"
	"github.com/superkkt/snooper/openflow"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/op/go-logging"
)

var (
	logger = logging.MustGetLogger("api")
)

// Server is the REST API server. It also bridges the external multicast membership
// tracker: the tracker reads the querier configuration and posts the group events here.
type Server struct {
	Port uint16
	TLS  struct {
		Cert string // Path for a TLS certification file.
		Key  string // Path for a TLS private key file.
	}
	Controller Controller
	Table      Table
	Groups     Groups
	Events     EventReceiver

	mutex   sync.Mutex
	querier *Querier
}

type Controller interface {
	Devices() []network.Device
}

type Table interface {
	Entries(openflow.DPID) []l2switch.Entry
}

type Groups interface {
	Groups() []igmp.Group
}

type EventReceiver interface {
	GroupEvent(network.GroupEvent) error
}

type Querier struct {
	DPID       openflow.DPID `json:"dpid"`
	ServerPort uint32        `json:"server_port"`
}

// SetQuerierMode implements igmp.Tracker.
func (r *Server) SetQuerierMode(dpid openflow.DPID, serverPort uint32) error {
	if serverPort == 0 || serverPort > openflow.PortMax {
		return fmt.Errorf("invalid multicast server port: %v", serverPort)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.querier = &Querier{DPID: dpid, ServerPort: serverPort}
	logger.Debugf("querier mode is set: DPID=%v, ServerPort=%v", dpid, serverPort)

	return nil
}

func (r *Server) getQuerier() (Querier, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.querier == nil {
		return Querier{}, false
	}

	return *r.querier, true
}

func (r *Server) validate() error {
	if r.Controller == nil {
		return errors.New("nil controller")
	}
	if r.Table == nil {
		return errors.New("nil forwarding table")
	}
	if r.Groups == nil {
		return errors.New("nil multicast groups")
	}
	if r.Events == nil {
		return errors.New("nil event receiver")
	}

	return nil
}

func (r *Server) MakeHandler() (http.Handler, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	api := rest.NewApi()
	// Middleware to set the CORS header.
	api.Use(rest.MiddlewareSimple(func(handler rest.HandlerFunc) rest.HandlerFunc {
		return func(writer rest.ResponseWriter, request *rest.Request) {
			writer.Header().Set("Access-Control-Allow-Origin", "*")
			handler(writer, request)
		}
	}))
	router, err := rest.MakeRouter(
		rest.Get("/api/v1/switch", r.listSwitch),
		rest.Get("/api/v1/mac/:dpid", r.listMAC),
		rest.Get("/api/v1/group", r.listGroup),
		rest.Get("/api/v1/querier", r.getQuerierConfig),
		rest.Post("/api/v1/group/event", r.addGroupEvent),
	)
	if err != nil {
		return nil, err
	}
	api.SetApp(router)

	return api.MakeHandler(), nil
}

func (r *Server) Serve() error {
	handler, err := r.MakeHandler()
	if err != nil {
		return err
	}

	// Listen on all interfaces.
	addr := fmt.Sprintf(":%v", r.Port)
	logger.Infof("serving the REST API on %v", addr)
	if r.TLS.Cert != "" && r.TLS.Key != "" {
		err = http.ListenAndServeTLS(addr, r.TLS.Cert, r.TLS.Key, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}

	return err
}
