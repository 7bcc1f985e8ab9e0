// Copyright (c) 2024 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
randsrc emits random data drawn from a software CSPRNG or a hardware random
number instruction.

The default configuration file is created in the application data directory
on first run.  Options on the command line take precedence over the
configuration file.

Usage:

	randsrc [OPTIONS]

Application Options:

	-V, --version          Display version information and exit
	-A, --appdata=         Path to application home directory
	-C, --configfile=      Path to configuration file
	    --logdir=          Directory to log output
	    --nofilelogging    Disable file logging
	-d, --debuglevel=      Logging level for all subsystems {trace, debug,
	                       info, warn, error, critical} (default: info)
	-b, --backend=         Backend to draw from {autodetect, software,
	                       hardware32, hardware64} (default: autodetect)
	    --nopool           Draw every request from the backend directly
	    --buffersize=      Size in bytes of each prefetch pool buffer
	                       (default: 65536)
	    --largerequest=    Requests of at least this many bytes bypass the
	                       prefetch pool (default: 64)
	-f, --format=[hex|raw|bool|double|int|uint64]
	                       Output format (default: hex)
	-n, --count=           Number of bytes to emit for the hex and raw formats,
	                       or values for the other formats (default: 32)
	    --bound=           Exclusive upper bound of values for the int and
	                       uint64 formats
	    --stream           Emit output until interrupted

Raw output is replaced by hex when standard output is a terminal.  Log output
is written to standard error and the log file.
*/
package main
