package rpc

import (
	"github.com/xelnet/xeld/infrastructure/logger"
	"github.com/xelnet/xeld/util/panics"
)

var log = logger.RegisterSubSystem("RPCS")
var spawn = panics.GoroutineWrapperFunc(log)
