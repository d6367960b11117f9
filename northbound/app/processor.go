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

package app

import (
	"github.com/superkkt/snooper/network"
)

type Processor interface {
	network.EventListener
	// Init is called once when the application is enabled.
	Init() error
	// Name returns the application name that is globally unique.
	Name() string
	Next() (next Processor, ok bool)
	SetNext(Processor)
}

type BaseProcessor struct {
	next Processor
}

func (r *BaseProcessor) Name() string {
	return "BaseProcessor"
}

func (r *BaseProcessor) OnSwitchConnect(ev network.SwitchConnect) (network.Output, error) {
	// Do nothging and execute the next processor if it exists
	next, ok := r.Next()
	if !ok {
		return network.Output{}, nil
	}
	return next.OnSwitchConnect(ev)
}

func (r *BaseProcessor) OnPacketIn(ev network.PacketIn) (network.Output, error) {
	// Do nothging and execute the next processor if it exists
	next, ok := r.Next()
	if !ok {
		return network.Output{}, nil
	}
	return next.OnPacketIn(ev)
}

func (r *BaseProcessor) OnGroupEvent(ev network.GroupEvent) (network.Output, error) {
	// Do nothging and execute the next processor if it exists
	next, ok := r.Next()
	if !ok {
		return network.Output{}, nil
	}
	return next.OnGroupEvent(ev)
}

func (r *BaseProcessor) Next() (next Processor, ok bool) {
	if r.next != nil {
		return r.next, true
	}

	return nil, false
}

func (r *BaseProcessor) SetNext(next Processor) {
	r.next = next
}
