package device

// Clone returns a deep copy of the device.
func (d *Device) Clone() *Device {
	c := *d
	c.Peripherals = make([]*Peripheral, len(d.Peripherals))
	for i, p := range d.Peripherals {
		c.Peripherals[i] = p.Clone()
	}
	c.Interrupts = make([]*Interrupt, len(d.Interrupts))
	for i, irq := range d.Interrupts {
		cp := *irq
		c.Interrupts[i] = &cp
	}
	return &c
}

// Clone returns a deep copy of the peripheral.
func (p *Peripheral) Clone() *Peripheral {
	c := *p
	c.Registers = cloneRegisters(p.Registers)
	return &c
}

// Clone returns a deep copy of the register.
func (r *Register) Clone() *Register {
	c := *r
	if r.Fields != nil {
		c.Fields = make([]*Field, len(r.Fields))
		for i, f := range r.Fields {
			c.Fields[i] = f.Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of the field. A set shared by both directions
// stays shared in the copy.
func (f *Field) Clone() *Field {
	c := *f
	c.Read = f.Read.Clone()
	if f.Write == f.Read {
		c.Write = c.Read
	} else {
		c.Write = f.Write.Clone()
	}
	return &c
}

// Clone returns a deep copy of the set, nil for a nil set.
func (s *EnumSet) Clone() *EnumSet {
	if s == nil {
		return nil
	}
	c := *s
	c.Values = make([]*EnumeratedValue, len(s.Values))
	for i, v := range s.Values {
		cv := *v
		cv.Values = append([]uint64(nil), v.Values...)
		c.Values[i] = &cv
	}
	return &c
}

func cloneRegisters(registers []*Register) []*Register {
	if registers == nil {
		return nil
	}
	c := make([]*Register, len(registers))
	for i, r := range registers {
		c[i] = r.Clone()
	}
	return c
}
