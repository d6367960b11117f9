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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/superkkt/snooper/api"
	"github.com/superkkt/snooper/database"
	"github.com/superkkt/snooper/log"
	"github.com/superkkt/snooper/network"
	"github.com/superkkt/snooper/northbound"
	"github.com/superkkt/snooper/northbound/app/igmp"
	"github.com/superkkt/snooper/northbound/app/l2switch"
	"github.com/superkkt/snooper/southbound"

	"github.com/fsnotify/fsnotify"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	programName     = "snooper"
	programVersion  = "0.1.0"
	defaultLogLevel = logging.INFO
)

var (
	logger            = logging.MustGetLogger("main")
	loggerLeveled     logging.LeveledBackend
	showVersion       = flag.Bool("version", false, "Show program version and exit")
	useStderr         = flag.Bool("stderr", false, "Write the log to stderr instead of syslog")
	defaultConfigFile = flag.String("config", fmt.Sprintf("/usr/local/etc/%v.yaml", programName), "absolute path of the configuration file")
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	flag.Parse()
	if *showVersion {
		fmt.Printf("Version: %v\n", programVersion)
		os.Exit(0)
	}

	initConfig()
	if err := initLog(getLogLevel()); err != nil {
		logger.Fatalf("failed to init log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	server := southbound.NewServer()
	controller := network.NewController(server, viper.GetDuration("default.flow_cache_expiration"))
	dispatcher := network.NewDispatcher(ctx, controller)
	server.SetHandler(dispatcher)

	table := l2switch.NewTable()
	groups := igmp.NewGroupTable()
	apiServer := newAPIServer(controller, table, groups, dispatcher)

	recorders := []igmp.Recorder{groups}
	if viper.GetBool("mysql.enable") {
		db, err := database.NewMySQL()
		if err != nil {
			logger.Fatalf("failed to init MySQL database: %v", err)
		}
		recorders = append(recorders, db)
	}

	conf := northbound.Config{
		Table:     table,
		Tracker:   apiServer,
		Recorders: recorders,
	}
	manager, err := createAppManager(conf)
	if err != nil {
		logger.Fatalf("failed to create application manager: %v", err)
	}
	manager.AddEventSender(controller)

	initAPIServer(apiServer)
	initSignalHandler(controller, manager, cancel)

	if err := server.Listen(ctx, viper.GetInt("default.port")); err != nil {
		logger.Fatalf("failed to run the OpenFlow listener: %v", err)
	}
}

func initConfig() {
	viper.SetDefault("default.port", 6633)
	viper.SetDefault("default.log_level", "info")
	viper.SetDefault("default.applications", "L2Switch, IGMP")
	viper.SetDefault("default.flow_cache_expiration", "5s")
	viper.SetDefault("rest.port", 7070)
	viper.SetDefault("igmp.querier_dpid", "0000000000000001")
	viper.SetDefault("igmp.server_port", 2)

	viper.SetConfigFile(*defaultConfigFile)
	// Read the config file.
	if err := viper.ReadInConfig(); err != nil {
		logger.Fatalf("failed to read the config file: %v", err)
	}
	// Watching and re-reading config file whenever it changes.
	viper.OnConfigChange(func(e fsnotify.Event) {
		// Ignore the WRITE operation to avoid reading empty config.
		if e.Op != fsnotify.Write {
			return
		}

		if loggerLeveled != nil {
			// Set log level for all modules
			loggerLeveled.SetLevel(getLogLevel(), "")
		}
	})
	viper.WatchConfig()
	if err := validateConfig(); err != nil {
		logger.Fatalf("failed to validate the configuration: %v", err)
	}
}

func validateConfig() error {
	if port := viper.GetInt("default.port"); port <= 0 || port > 0xFFFF {
		return errors.New("invalid default.port")
	}
	if len(viper.GetString("default.log_level")) == 0 {
		return errors.New("invalid default.log_level")
	}
	if len(viper.GetString("default.applications")) == 0 {
		return errors.New("invalid default.applications")
	}
	if viper.GetDuration("default.flow_cache_expiration") <= 0 {
		return errors.New("invalid default.flow_cache_expiration")
	}
	if port := viper.GetInt("rest.port"); port <= 0 || port > 0xFFFF {
		return errors.New("invalid rest.port")
	}
	if viper.GetBool("rest.tls") {
		if len(viper.GetString("rest.cert_file")) == 0 || len(viper.GetString("rest.key_file")) == 0 {
			return errors.New("invalid rest.cert_file or rest.key_file")
		}
	}

	return nil
}

func newAPIServer(controller *network.Controller, table *l2switch.Table, groups *igmp.GroupTable, dispatcher *network.Dispatcher) *api.Server {
	srv := &api.Server{
		Port:       uint16(viper.GetInt("rest.port")),
		Controller: controller,
		Table:      table,
		Groups:     groups,
		Events:     dispatcher,
	}
	if viper.GetBool("rest.tls") == true {
		srv.TLS.Cert = viper.GetString("rest.cert_file")
		srv.TLS.Key = viper.GetString("rest.key_file")
	}

	return srv
}

func initAPIServer(srv *api.Server) {
	go func() {
		if err := srv.Serve(); err != nil {
			logger.Fatalf("failed to run the API server: %v", err)
		}
	}()
}

func initSignalHandler(controller *network.Controller, manager *northbound.Manager, cancel context.CancelFunc) {
	go func() {
		c := make(chan os.Signal, 5)
		signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

		// Infinte loop.
		for {
			s := <-c
			if s == syscall.SIGTERM || s == syscall.SIGINT {
				// Graceful shutdown
				logger.Warning("Shutting down...")
				cancel()
				// Timeout for cancelation
				time.Sleep(5 * time.Second)
				os.Exit(0)
			} else if s == syscall.SIGHUP {
				fmt.Println("* Controller status:")
				fmt.Println(controller.String())
				fmt.Printf("\n* Manager status:\n")
				fmt.Println(manager.String())
			}
		}
	}()
}

func initLog(level logging.Level) error {
	var backend logging.Backend
	if *useStderr {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	} else {
		v, err := log.NewSyslog(programName)
		if err != nil {
			return err
		}
		backend = v
	}
	backend = logging.NewBackendFormatter(backend, logging.MustStringFormatter(`%{level}: %{shortpkg}.%{shortfunc}: %{message}`))

	loggerLeveled = logging.AddModuleLevel(backend)
	// Set log level for all modules
	loggerLeveled.SetLevel(level, "")
	logging.SetBackend(loggerLeveled)

	return nil
}

func getLogLevel() logging.Level {
	level := viper.GetString("default.log_level")
	v := log.ParseLevel(level, defaultLogLevel)
	if !strings.EqualFold(v.String(), strings.TrimSpace(level)) {
		logger.Infof("invalid log level=%v, defaulting to %v..", level, defaultLogLevel)
	}

	return v
}

func createAppManager(conf northbound.Config) (*northbound.Manager, error) {
	manager := northbound.NewManager(conf)

	apps, err := parseApplications(viper.GetString("default.applications"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse applications")
	}
	for _, v := range apps {
		if err := manager.Enable(v); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("enabling %v", v))
		}
	}

	return manager, nil
}

func parseApplications(s string) ([]string, error) {
	result := []string{}
	// Remove spaces, and then split it using comma
	for _, v := range strings.Split(strings.Replace(s, " ", "", -1), ",") {
		if len(v) == 0 {
			continue
		}
		result = append(result, v)
	}
	if len(result) == 0 {
		return nil, errors.New("empty application")
	}

	return result, nil
}
