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
	"context"
	"sync"

	"github.com/superkkt/snooper/openflow"
)

const queueSize = 256

// Handler processes the events taken from the dispatcher queues.
type Handler interface {
	OnSwitchConnect(SwitchConnect) error
	OnSwitchDisconnect(openflow.DPID)
	OnPacketIn(PacketIn) error
	OnGroupEvent(GroupEvent) error
}

// Dispatcher runs one worker per switch so that the events of a switch are handled
// one by one in arrival order while different switches are handled concurrently.
// Multicast group events have their own worker. The worker of a switch exits after
// its disconnection if no more events of the switch are pending.
type Dispatcher struct {
	ctx     context.Context
	handler Handler

	mutex  sync.Mutex
	queues map[openflow.DPID]*eventQueue
	group  chan job
}

// job returns true if the worker running it should exit.
type job func() bool

type eventQueue struct {
	jobs chan job
	// Number of posters that hold this queue.
	posters int
}

func NewDispatcher(ctx context.Context, handler Handler) *Dispatcher {
	if handler == nil {
		panic("nil handler")
	}

	v := &Dispatcher{
		ctx:     ctx,
		handler: handler,
		queues:  make(map[openflow.DPID]*eventQueue),
		group:   make(chan job, queueSize),
	}
	go v.worker("multicast", v.group)

	return v
}

func (r *Dispatcher) acquire(dpid openflow.DPID) *eventQueue {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	q, ok := r.queues[dpid]
	if !ok {
		q = &eventQueue{jobs: make(chan job, queueSize)}
		r.queues[dpid] = q
		go r.worker(dpid.String(), q.jobs)
	}
	q.posters++

	return q
}

func (r *Dispatcher) release(q *eventQueue) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	q.posters--
}

// remove deletes the queue of dpid unless an event of the switch is still pending.
func (r *Dispatcher) remove(dpid openflow.DPID, q *eventQueue) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if q.posters > 0 || len(q.jobs) > 0 {
		return false
	}
	delete(r.queues, dpid)

	return true
}

func (r *Dispatcher) postSwitch(dpid openflow.DPID, f func(q *eventQueue) bool) error {
	q := r.acquire(dpid)
	defer r.release(q)

	return r.post(q.jobs, func() bool { return f(q) })
}

func (r *Dispatcher) post(q chan job, j job) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}

	select {
	case q <- j:
		return nil
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

func (r *Dispatcher) worker(name string, q chan job) {
	logger.Debugf("started the event worker: %v", name)

	for {
		select {
		case <-r.ctx.Done():
			logger.Debugf("terminating the event worker: %v", name)
			return
		case j := <-q:
			if j() {
				logger.Debugf("released the event worker: %v", name)
				return
			}
		}
	}
}

func (r *Dispatcher) SwitchConnect(ev SwitchConnect) error {
	return r.postSwitch(ev.DPID, func(*eventQueue) bool {
		if err := r.handler.OnSwitchConnect(ev); err != nil {
			logger.Errorf("failed to handle the switch connection: %v", err)
		}
		return false
	})
}

func (r *Dispatcher) SwitchDisconnect(dpid openflow.DPID) error {
	return r.postSwitch(dpid, func(q *eventQueue) bool {
		r.handler.OnSwitchDisconnect(dpid)
		return r.remove(dpid, q)
	})
}

func (r *Dispatcher) PacketIn(ev PacketIn) error {
	return r.postSwitch(ev.DPID, func(*eventQueue) bool {
		if err := r.handler.OnPacketIn(ev); err != nil {
			logger.Errorf("failed to handle PACKET_IN: %v", err)
		}
		return false
	})
}

func (r *Dispatcher) GroupEvent(ev GroupEvent) error {
	return r.post(r.group, func() bool {
		if err := r.handler.OnGroupEvent(ev); err != nil {
			logger.Errorf("failed to handle the multicast group event: %v", err)
		}
		return false
	})
}
