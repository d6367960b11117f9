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

package database

func (r *MySQL) createTables() error {
	qry := "CREATE TABLE IF NOT EXISTS `multicast_event` ("
	qry += " `id` bigint(20) unsigned NOT NULL AUTO_INCREMENT,"
	qry += " `category` varchar(64) NOT NULL,"
	qry += " `address` varchar(64) NOT NULL,"
	qry += " `dpid` bigint(20) unsigned NOT NULL,"
	qry += " `source` int(10) unsigned NOT NULL,"
	qry += " `members` text NOT NULL,"
	qry += " `timestamp` datetime NOT NULL,"
	qry += " PRIMARY KEY (`id`),"
	qry += " KEY `address` (`address`, `dpid`)"
	qry += ") ENGINE=InnoDB DEFAULT CHARSET=utf8;"

	_, err := r.db.Exec(qry)
	return err
}
