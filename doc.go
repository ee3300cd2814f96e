/*
gridserve is an HTTP server that loads one NetCDF grid file fully into memory
and answers queries against it without any intermediate extraction step.

The server exposes five GET endpoints:

	/metadata    file schema, attributes, and raw coordinate values
	/point       interpolated scalar values at an off-grid point
	/data        N-dimensional hyperslab extraction as an Arrow IPC stream or JSON
	/image       a 2D slice rendered to PNG through a colormap
	/heartbeat   liveness, uptime, and memory usage

Dimensions can be addressed three ways in query strings: by their file-specific
name (lat=0), by a canonical name behind a single underscore (_latitude=0,
resolved through configured aliases), or by raw index behind a double
underscore (__latitude_index=1).  Ranges add a _range suffix with two
comma-separated bounds.

Usage:

	gridserve [options] <netcdf-file>

	-config     =string   Path to TOML configuration file
	-host       =string   Host address to bind (overrides config)
	-port       =number   Port to listen on (overrides config)
	-verbose    (flag)    Run in verbose mode, i.e. with debug logging
	-help       (flag)    Show help message

The TOML configuration carries [server], [data], [aliases], and [logging]
tables; all values have working defaults so a bare invocation with just a
NetCDF file serves on 127.0.0.1:8000.
*/
package main
