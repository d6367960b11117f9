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

package openflow

import (
	"fmt"
)

// Action is an output action. MaxLen is only meaningful when Port is PortController.
type Action struct {
	Port   uint32
	MaxLen uint16
}

func NewOutputAction(port uint32) Action {
	return Action{Port: port}
}

// NewControllerAction sends the whole packet to the controller.
func NewControllerAction() Action {
	return Action{
		Port:   PortController,
		MaxLen: ControllerMaxLenNoBuffer,
	}
}

func (r Action) IsFlood() bool {
	return r.Port == PortFlood
}

func (r Action) String() string {
	switch r.Port {
	case PortFlood:
		return "output:flood"
	case PortController:
		return fmt.Sprintf("output:controller(max_len=%v)", r.MaxLen)
	case PortInPort:
		return "output:in_port"
	case PortAll:
		return "output:all"
	default:
		return fmt.Sprintf("output:%v", r.Port)
	}
}
