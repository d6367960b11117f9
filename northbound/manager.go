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
	"bytes"
	"fmt"
	"strings"

	"github.com/superkkt/snooper/network"
	"github.com/superkkt/snooper/northbound/app"
	"github.com/superkkt/snooper/northbound/app/igmp"
	"github.com/superkkt/snooper/northbound/app/l2switch"

	"github.com/op/go-logging"
)

var (
	logger = logging.MustGetLogger("northbound")
)

type EventSender interface {
	SetEventListener(network.EventListener)
}

type Config struct {
	Table     *l2switch.Table
	Tracker   igmp.Tracker
	Recorders []igmp.Recorder
}

type Manager struct {
	apps       map[string]app.Processor // Registered applications
	enabled    []app.Processor
	head, tail app.Processor
}

func NewManager(conf Config) *Manager {
	if conf.Table == nil {
		panic("nil forwarding table")
	}
	if conf.Tracker == nil {
		panic("nil multicast tracker")
	}

	v := &Manager{
		apps: make(map[string]app.Processor),
	}
	// Registering north-bound applications
	v.register(l2switch.New(conf.Table))
	v.register(igmp.New(conf.Tracker, conf.Recorders...))

	return v
}

func (r *Manager) register(app app.Processor) {
	r.apps[strings.ToUpper(app.Name())] = app
}

func (r *Manager) Enable(appName string) error {
	logger.Debugf("enabling %v application..", appName)

	app, ok := r.apps[strings.ToUpper(strings.TrimSpace(appName))]
	if !ok {
		return fmt.Errorf("unknown application: %v", appName)
	}
	for _, v := range r.enabled {
		if v == app {
			return fmt.Errorf("already enabled application: %v", appName)
		}
	}
	if err := app.Init(); err != nil {
		return err
	}
	r.enabled = append(r.enabled, app)
	logger.Infof("%v application is enabled", app.Name())

	if r.head == nil {
		r.head = app
		r.tail = app
		return nil
	}
	r.tail.SetNext(app)
	r.tail = app

	return nil
}

func (r *Manager) AddEventSender(sender EventSender) {
	if r.head == nil {
		return
	}
	sender.SetEventListener(r.head)
}

func (r *Manager) String() string {
	var buf bytes.Buffer
	for _, v := range r.enabled {
		buf.WriteString(fmt.Sprintf("Application: %v\n", v))
	}

	return buf.String()
}
