package detector

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrosvd/internal/arch"
)

func TestDetect(t *testing.T) {
	logger := log.NewTestLogger(t)
	d := New(logger)

	tests := []struct {
		name       string
		configured arch.Target
		cpu        string
		wantTarget arch.Target
	}{
		{
			name:       "explicit target option",
			configured: arch.None,
			cpu:        "CM4",
			wantTarget: arch.None,
		},
		{
			name:       "detect from cortex-m cpu",
			cpu:        "CM4",
			wantTarget: arch.CortexM,
		},
		{
			name:       "detect from riscv cpu",
			cpu:        "RV32IMAC",
			wantTarget: arch.RISCV,
		},
		{
			name:       "unknown cpu defaults to cortex-m",
			cpu:        "Z80",
			wantTarget: arch.CortexM,
		},
		{
			name:       "missing cpu defaults to cortex-m",
			cpu:        "",
			wantTarget: arch.CortexM,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.configured, tt.cpu)
			assert.Equal(t, tt.wantTarget, got)
		})
	}
}

func TestDetectFromCPU(t *testing.T) {
	tests := []struct {
		name       string
		cpu        string
		wantTarget arch.Target
		wantOK     bool
	}{
		{name: "cortex-m0plus", cpu: "CM0PLUS", wantTarget: arch.CortexM, wantOK: true},
		{name: "cortex-m33 lower case", cpu: "cm33", wantTarget: arch.CortexM, wantOK: true},
		{name: "secure core", cpu: "SC300", wantTarget: arch.CortexM, wantOK: true},
		{name: "msp430", cpu: "MSP430", wantTarget: arch.MSP430, wantOK: true},
		{name: "risc-v", cpu: "RISC-V", wantTarget: arch.RISCV, wantOK: true},
		{name: "other", cpu: "other", wantTarget: arch.None, wantOK: true},
		{name: "unknown", cpu: "6502", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := detectFromCPU(tt.cpu)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTarget, got)
		})
	}
}
