package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/scigrid/gridserve/dataset"
	"github.com/scigrid/gridserve/gridserve"
	"github.com/scigrid/gridserve/server"
)

var (
	showHelp   = flag.Bool("help", false, "")
	runVerbose = flag.Bool("verbose", false, "")
	configFile = flag.String("config", "", "")
	hostFlag   = flag.String("host", "", "")
	portFlag   = flag.Int("port", 0, "")
)

const helpMessage = `
gridserve serves a NetCDF grid file from memory over HTTP

	usage: gridserve [options] <netcdf-file>

	-config     =string   Path to TOML configuration file
	-host       =string   Host address to bind (overrides config)
	-port       =number   Port to listen on (overrides config)
	-verbose    (flag)    Run in verbose mode, i.e. with debug logging
	-help       (flag)    Show help message
`

func main() {
	flag.BoolVar(showHelp, "h", false, "")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, helpMessage)
	}
	flag.Parse()

	if *showHelp || flag.NArg() != 1 {
		flag.Usage()
		if *showHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if *runVerbose {
		gridserve.SetLogMode(gridserve.DebugMode)
	}

	if err := server.LoadConfig(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *hostFlag != "" {
		server.SetHost(*hostFlag)
	}
	if *portFlag != 0 {
		server.SetPort(*portFlag)
	}
	server.InitLogging()

	filename := flag.Arg(0)
	tlog := gridserve.NewTimeLog()
	ds, err := dataset.Load(filename, server.DimensionAliases())
	if err != nil {
		gridserve.Criticalf("Unable to load %s: %v\n", filename, err)
		os.Exit(1)
	}
	tlog.Infof("loaded %s (%d variables, %d dimensions)", filename,
		len(ds.Variables), len(ds.Dimensions))

	if err := server.Serve(ds); err != nil {
		gridserve.Criticalf("Server error: %v\n", err)
		os.Exit(1)
	}
}
