// Package arch contains the architecture targets the generated register API
// can be built for.
package arch

import (
	"fmt"
	"strings"
)

// Target is an architecture target.
type Target string

// Supported targets.
const (
	None    Target = "none"
	CortexM Target = "cortex-m"
	MSP430  Target = "msp430"
	RISCV   Target = "riscv"
)

// Default is used when the target is not given and can not be detected.
const Default = CortexM

var buildTags = map[Target]string{
	CortexM: "cortexm",
	MSP430:  "msp430",
	RISCV:   "riscv",
}

// Targets returns all supported targets.
func Targets() []Target {
	return []Target{None, CortexM, MSP430, RISCV}
}

// TargetFromString parses a target name, an empty name returns an empty
// target.
func TargetFromString(s string) (Target, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return "", nil
	case "cortexm", "arm":
		return CortexM, nil
	}

	for _, target := range Targets() {
		if string(target) == s {
			return target, nil
		}
	}
	return "", fmt.Errorf("unsupported target '%s'", s)
}

// HasInterruptVectors returns whether the target has an interrupt vector
// table that the interrupt numbers of the device are generated for.
func (t Target) HasInterruptVectors() bool {
	return t != None && t != ""
}

// BuildTag returns the build constraint of the generated code, empty if the
// code builds on any architecture.
func (t Target) BuildTag() string {
	return buildTags[t]
}

func (t Target) String() string {
	return string(t)
}
