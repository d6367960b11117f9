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

package network

import (
	"github.com/superkkt/snooper/openflow"
)

// tableMissRule redirects every unmatched packet to the controller.
//
// Do not lower max_len of the controller action. If we specify a lesser number,
// e.g., 128, OVS older than 2.1.0 sends PACKET_IN with an invalid buffer ID and
// truncated packet data, and we cannot output the packet correctly.
func tableMissRule(dpid openflow.DPID) openflow.FlowRule {
	// Table-miss entry should have zero priority and a wildcard match.
	return openflow.NewFlowRule(dpid, 0, openflow.NewMatch(), openflow.NewControllerAction()).WithCookie(openflow.TableMissCookie)
}
