// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package app

import (
	"github.com/xelnet/xeld/infrastructure/logger"
	"github.com/xelnet/xeld/util/panics"
)

var log = logger.RegisterSubSystem("XELD")
var spawn = panics.GoroutineWrapperFunc(log)
