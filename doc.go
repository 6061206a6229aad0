/*
Copyright (c) 2013-2018 The btcsuite developers
Copyright (c) 2015-2016 The Decred developers
Copyright (c) 2013-2014 Conformal Systems LLC.
Use of this source code is governed by an ISC
license that can be found in the LICENSE file.

Xeld is a proof-of-stake chain node written in Go. It keeps the canonical
block chain, validates blocks received from peers, and forges blocks for the
accounts whose keys it is given.

The default options are sane for most users. This means xeld will work 'out of
the box' for most users. However, there are also a wide variety of flags that
can be used to control it.

Usage:

	xeld [OPTIONS]

For an up-to-date help message:

	xeld --help

The long form of all option flags (except -C) can be specified in a configuration
file that is automatically parsed when xeld starts up. By default, the
configuration file is located at ~/.xeld/xeld.conf on POSIX-style operating
systems and %LOCALAPPDATA%\xeld\xeld.conf on Windows. The -C (--configfile)
flag can be used to override this location.

Forging keys are read from the YAML file given by --forgingkeysfile, which
genforgingkey creates and extends. With --nodeadmin, an HTTP interface on
--adminlisten serves the chain status, the forging accounts and prometheus
metrics, and lets the operator pop off, rescan or reset the chain.
*/
package main
