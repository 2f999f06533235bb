package util

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var GLOBAL_LOG_LEVEL = LogLevelInfo
var GLOBAL_LOG_CATEGORIES = LogSystem | LogIO | LogScene

var logOutput io.Writer = os.Stderr
var logMutex sync.Mutex

type LogLevel int

const (
	LogLevelError LogLevel = iota + 1
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarning:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	}
	return "UNKNOWN"
}

type LogCategory int

const (
	LogSpatial LogCategory = 1 << iota
	LogScene
	LogSight
	LogSystem
	LogIO
	LogRender
)

const LogAll = LogSpatial | LogScene | LogSight | LogSystem | LogIO | LogRender

// SetLogOutput redirects all log lines, e.g. to io.Discard in benchmarks.
func SetLogOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logOutput = w
}

func IsLogging(cat LogCategory, lvl LogLevel) bool {
	return lvl <= GLOBAL_LOG_LEVEL && GLOBAL_LOG_CATEGORIES&cat != 0
}

func log(cat LogCategory, lvl LogLevel, txt string) {
	if !IsLogging(cat, lvl) {
		return
	}
	logMutex.Lock()
	defer logMutex.Unlock()
	fmt.Fprintf(logOutput, "%-5s %s\n", lvl, txt)
}

func LogSpatialInfo(txt string) {
	log(LogSpatial, LogLevelInfo, txt)
}

func LogSpatialDebug(txt string) {
	log(LogSpatial, LogLevelDebug, txt)
}

func LogSpatialError(txt string) {
	log(LogSpatial, LogLevelError, txt)
}

func LogSceneInfo(txt string) {
	log(LogScene, LogLevelInfo, txt)
}

func LogSceneDebug(txt string) {
	log(LogScene, LogLevelDebug, txt)
}

func LogSceneWarning(txt string) {
	log(LogScene, LogLevelWarning, txt)
}

func LogSightDebug(txt string) {
	log(LogSight, LogLevelDebug, txt)
}

func LogSightError(txt string) {
	log(LogSight, LogLevelError, txt)
}

func LogSystemInfo(txt string) {
	log(LogSystem, LogLevelInfo, txt)
}

func LogSystemError(txt string) {
	log(LogSystem, LogLevelError, txt)
}

func LogIOInfo(txt string) {
	log(LogIO, LogLevelInfo, txt)
}

func LogRenderDebug(txt string) {
	log(LogRender, LogLevelDebug, txt)
}
