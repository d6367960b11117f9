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
	"fmt"
	"strings"
	"time"

	"github.com/superkkt/snooper/openflow"

	lru "github.com/hashicorp/golang-lru"
)

type flowCache struct {
	cache      *lru.Cache
	expiration time.Duration
}

func newFlowCache(expiration time.Duration) *flowCache {
	c, err := lru.New(8192)
	if err != nil {
		panic(fmt.Sprintf("failed to init a LRU flow cache: %v", err))
	}

	return &flowCache{
		cache:      c,
		expiration: expiration,
	}
}

func (r *flowCache) key(rule openflow.FlowRule) string {
	return fmt.Sprintf("%v/%v/%v/%v/%v/%v/%v", rule.DPID, rule.TableID, rule.Priority, rule.Match, rule.Actions, rule.IdleTimeout, rule.HardTimeout)
}

type flowCacheEntry struct {
	rule      openflow.FlowRule
	timestamp time.Time
}

func (r *flowCache) Add(rule openflow.FlowRule) {
	key := r.key(rule)
	t := time.Now()
	// Update if the key already exists.
	r.cache.Add(key, flowCacheEntry{rule: rule, timestamp: t})
	logger.Debugf("added a new flow cache: key=%v, timestamp=%v", key, t)
}

// InProgress reports whether the same rule has been installed within the expiration.
func (r *flowCache) InProgress(rule openflow.FlowRule) bool {
	key := r.key(rule)

	v, ok := r.cache.Get(key)
	if !ok {
		return false
	}
	entry := v.(flowCacheEntry)
	if !entry.rule.Equal(rule) {
		return false
	}

	// Timeout?
	if time.Since(entry.timestamp) > r.expiration {
		r.cache.Remove(key)
		logger.Debugf("removed the timed-out flow cache: key=%v", key)
		return false
	}

	return true
}

func (r *flowCache) RemoveDevice(dpid openflow.DPID) {
	prefix := fmt.Sprintf("%v/", dpid)
	for _, k := range r.cache.Keys() {
		if strings.HasPrefix(k.(string), prefix) {
			r.cache.Remove(k)
		}
	}
	logger.Debugf("removed all the flow caches of DPID %v", dpid)
}
