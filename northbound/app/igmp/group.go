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
	"sort"
	"sync"
	"time"

	"github.com/superkkt/snooper/network"
	"github.com/superkkt/snooper/openflow"
)

type Group struct {
	Address   net.IP        `json:"address"`
	DPID      openflow.DPID `json:"dpid"`
	Source    uint32        `json:"source"`
	Members   []uint32      `json:"members"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// GroupTable is a recorder that keeps the current state of the multicast groups.
type GroupTable struct {
	mutex  sync.Mutex
	groups map[string]Group
}

func NewGroupTable() *GroupTable {
	return &GroupTable{
		groups: make(map[string]Group),
	}
}

func groupKey(dpid openflow.DPID, addr net.IP) string {
	return fmt.Sprintf("%v/%v", dpid, addr)
}

func (r *GroupTable) Record(v Record) error {
	if v.Group == nil {
		return fmt.Errorf("missing multicast group address: %v", v)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	key := groupKey(v.DPID, v.Group)
	switch v.Reason {
	case network.GroupAdded, network.GroupMemberChanged:
		r.groups[key] = Group{
			Address:   v.Group,
			DPID:      v.DPID,
			Source:    v.Source,
			Members:   append([]uint32{}, v.Members...),
			UpdatedAt: v.Timestamp,
		}
	case network.GroupRemoved:
		delete(r.groups, key)
	default:
		return fmt.Errorf("unexpected multicast group reason: %v", v.Reason)
	}

	return nil
}

// Groups returns the current groups ordered by DPID and then by address.
func (r *GroupTable) Groups() []Group {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	result := make([]Group, 0, len(r.groups))
	for _, v := range r.groups {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DPID != result[j].DPID {
			return result[i].DPID < result[j].DPID
		}
		return result[i].Address.String() < result[j].Address.String()
	})

	return result
}
