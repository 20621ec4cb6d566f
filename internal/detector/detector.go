// Package detector handles architecture target detection.
package detector

import (
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/arch"
)

// Detector handles architecture target detection from options and the
// device description.
type Detector struct {
	logger *log.Logger
}

// New creates a new target detector.
func New(logger *log.Logger) *Detector {
	return &Detector{
		logger: logger,
	}
}

// Detect determines the architecture target from options or the CPU name of
// the device. An explicitly configured target is used as is, otherwise the
// target is detected from the CPU name, falling back to the default target.
func (d *Detector) Detect(configured arch.Target, cpu string) arch.Target {
	if configured != "" {
		return configured
	}

	target, ok := detectFromCPU(cpu)
	if !ok {
		target = arch.Default
	}
	d.logger.Debug("Auto-detected target",
		log.Stringer("target", target),
		log.String("cpu", cpu))
	return target
}

// detectFromCPU determines the target based on the CPU name of the device.
func detectFromCPU(cpu string) (arch.Target, bool) {
	name := strings.ToUpper(strings.TrimSpace(cpu))
	switch {
	case name == "":
		return "", false
	case strings.HasPrefix(name, "CM"), strings.HasPrefix(name, "SC"),
		strings.HasPrefix(name, "CORTEX-M"), strings.HasPrefix(name, "ARMV"):
		return arch.CortexM, true
	case strings.HasPrefix(name, "MSP430"):
		return arch.MSP430, true
	case strings.HasPrefix(name, "RV"), strings.HasPrefix(name, "RISCV"),
		strings.HasPrefix(name, "RISC-V"):
		return arch.RISCV, true
	case name == "OTHER":
		return arch.None, true
	default:
		return "", false
	}
}
