package ldb

import "github.com/xelnet/xeld/infrastructure/logger"

var log = logger.RegisterSubSystem("BDBS")
