package consensus

import (
	"github.com/xelnet/xeld/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CNSS")
