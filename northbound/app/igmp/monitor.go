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

package igmp

import (
	"fmt"
	"net"
	"time"

	"github.com/superkkt/snooper/network"
	"github.com/superkkt/snooper/northbound/app"
	"github.com/superkkt/snooper/openflow"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var (
	logger = logging.MustGetLogger("igmp")
)

const (
	defaultQuerierDPID = "0000000000000001"
	defaultServerPort  = 2
)

// Tracker is the multicast membership tracker that snoops IGMP messages and
// reports the group changes back to us.
type Tracker interface {
	// SetQuerierMode makes the switch dpid act as the IGMP querier whose
	// multicast server is connected to serverPort.
	SetQuerierMode(dpid openflow.DPID, serverPort uint32) error
}

// Record is a multicast group change kept by the recorders.
type Record struct {
	Category  string              `json:"category"`
	Reason    network.GroupReason `json:"-"`
	Group     net.IP              `json:"group"`
	DPID      openflow.DPID       `json:"dpid"`
	Source    uint32              `json:"source"`
	Members   []uint32            `json:"members"`
	Timestamp time.Time           `json:"timestamp"`
}

func (r Record) String() string {
	return fmt.Sprintf("%v: [%v] querier:[%v] hosts:%v", r.Category, r.Group, r.Source, r.Members)
}

type Recorder interface {
	Record(Record) error
}

// Monitor only observes the multicast group changes. It never installs flows nor sends packets.
type Monitor struct {
	app.BaseProcessor
	tracker   Tracker
	recorders []Recorder
}

func New(tracker Tracker, recorders ...Recorder) *Monitor {
	if tracker == nil {
		panic("nil multicast tracker")
	}

	return &Monitor{
		tracker:   tracker,
		recorders: recorders,
	}
}

func (r *Monitor) Init() error {
	dpid, port, err := querierConfig()
	if err != nil {
		return err
	}
	if err := r.tracker.SetQuerierMode(dpid, port); err != nil {
		return errors.Wrap(err, fmt.Sprintf("setting the querier mode (DPID=%v, ServerPort=%v)", dpid, port))
	}
	logger.Infof("IGMP querier mode: DPID=%v, ServerPort=%v", dpid, port)

	return nil
}

func querierConfig() (openflow.DPID, uint32, error) {
	s := defaultQuerierDPID
	if viper.IsSet("igmp.querier_dpid") {
		s = viper.GetString("igmp.querier_dpid")
	}
	dpid, err := openflow.ParseDPID(s)
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid igmp.querier_dpid in the config file")
	}

	port := int64(defaultServerPort)
	if viper.IsSet("igmp.server_port") {
		port = viper.GetInt64("igmp.server_port")
	}
	if port <= 0 || port > int64(openflow.PortMax) {
		return 0, 0, fmt.Errorf("invalid igmp.server_port in the config file: %v", port)
	}

	return dpid, uint32(port), nil
}

func (r *Monitor) Name() string {
	return "IGMP"
}

func (r *Monitor) OnGroupEvent(ev network.GroupEvent) (network.Output, error) {
	if !ev.Reason.Valid() {
		return network.Output{}, fmt.Errorf("invalid multicast group reason: %v", int(ev.Reason))
	}

	record := Record{
		Category:  ev.Reason.String(),
		Reason:    ev.Reason,
		Group:     ev.Group,
		DPID:      ev.DPID,
		Source:    ev.Source,
		Members:   append([]uint32{}, ev.Members...),
		Timestamp: time.Now(),
	}
	logger.Infof("%v", record)

	for _, v := range r.recorders {
		if err := v.Record(record); err != nil {
			logger.Errorf("failed to record the multicast group event: %v", err)
		}
	}

	return r.BaseProcessor.OnGroupEvent(ev)
}

func (r *Monitor) String() string {
	return fmt.Sprintf("%v", r.Name())
}
