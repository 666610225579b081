/*
DESCRIPTION
  logger.go installs the package-level structured logger used throughout
  h264dec in place of a process-global *log.Logger.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package h264dec

import "go.uber.org/zap"

// printfLogger adapts a *zap.SugaredLogger to the Printf-style call
// convention this package's parsing code already uses, so existing
// logger.Printf("debug: ...", args...) call sites don't need touching.
type printfLogger struct {
	s *zap.SugaredLogger
}

func (l printfLogger) Printf(format string, args ...interface{}) {
	if l.s == nil {
		return
	}
	l.s.Debugf(format, args...)
}

// logger is the package-wide sink. It is a no-op until SetLogger installs a
// real *zap.Logger, so the package works unconfigured (e.g. under test).
var logger printfLogger

// SetLogger installs z as the destination for h264dec's debug/info/error
// logging. Passing nil reverts to the no-op logger.
func SetLogger(z *zap.Logger) {
	if z == nil {
		logger = printfLogger{}
		return
	}
	logger = printfLogger{s: z.Sugar()}
}
