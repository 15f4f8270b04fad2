package vulkan

import (
	"sync/atomic"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

// Diagnostic is one message from the validation layers.
type Diagnostic struct {
	Flags   vk.DebugReportFlags
	Layer   string
	Code    int32
	Message string
}

func (d Diagnostic) has(bit vk.DebugReportFlagBits) bool {
	return d.Flags&vk.DebugReportFlags(bit) != 0
}

// Severity names the most severe flag set on the message.
func (d Diagnostic) Severity() string {
	switch {
	case d.has(vk.DebugReportErrorBit):
		return "ERROR"
	case d.has(vk.DebugReportWarningBit):
		return "WARNING"
	case d.has(vk.DebugReportPerformanceWarningBit):
		return "PERFORMANCE WARNING"
	case d.has(vk.DebugReportInformationBit):
		return "INFORMATION"
	case d.has(vk.DebugReportDebugBit):
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// DiagnosticSink receives validation messages. It may be called from driver
// threads.
type DiagnosticSink func(Diagnostic)

// LogDiagnostic is the default sink: it forwards to the engine logger at the
// matching level.
func LogDiagnostic(d Diagnostic) {
	switch {
	case d.has(vk.DebugReportErrorBit):
		core.LogError("%s: [%s] Code %d : %s", d.Severity(), d.Layer, d.Code, d.Message)
	case d.has(vk.DebugReportWarningBit), d.has(vk.DebugReportPerformanceWarningBit):
		core.LogWarn("%s: [%s] Code %d : %s", d.Severity(), d.Layer, d.Code, d.Message)
	case d.has(vk.DebugReportInformationBit):
		core.LogInfo("%s: [%s] Code %d : %s", d.Severity(), d.Layer, d.Code, d.Message)
	default:
		core.LogDebug("%s: [%s] Code %d : %s", d.Severity(), d.Layer, d.Code, d.Message)
	}
}

// The callback is a plain C function pointer, so the sink of the live
// instance is package state. Only one instance forwards at a time.
var activeSink atomic.Pointer[DiagnosticSink]

func attachSink(sink DiagnosticSink) {
	if sink == nil {
		sink = LogDiagnostic
	}
	activeSink.Store(&sink)
}

func detachSink() {
	activeSink.Store(nil)
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	if sink := activeSink.Load(); sink != nil {
		(*sink)(Diagnostic{
			Flags:   flags,
			Layer:   pLayerPrefix,
			Code:    messageCode,
			Message: pMessage,
		})
	}
	// never abort the call that triggered the report
	return vk.Bool32(vk.False)
}

func debugReportFlags(verbose bool) vk.DebugReportFlags {
	flags := vk.DebugReportFlags(vk.DebugReportErrorBit) |
		vk.DebugReportFlags(vk.DebugReportWarningBit) |
		vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit)
	if verbose {
		flags |= vk.DebugReportFlags(vk.DebugReportInformationBit) | vk.DebugReportFlags(vk.DebugReportDebugBit)
	}
	return flags
}
