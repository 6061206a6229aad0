package activegenerators

import (
	"github.com/xelnet/xeld/infrastructure/logger"
)

var log = logger.RegisterSubSystem("ACTG")
