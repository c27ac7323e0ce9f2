package lox

import "github.com/sirupsen/logrus"

// log is the package-level structured logger. The Scanner and the VM each
// keep a `trace bool` that gates their Debug-level calls against this
// shared logger; the compiler's Debug-level calls are not gated. Overall
// verbosity is one knob (logrus.SetLevel) rather than a scattered if-check
// and raw stderr write per print site.
var log = logrus.New()

// SetDebug toggles debug-level logging for the whole package: compiler
// error lines and disassembly dumps, plus the scanner token and VM
// instruction traces of any Scanner or VM whose trace flag is on.
func SetDebug(on bool) {
	if on {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}
