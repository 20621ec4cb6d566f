package api

// Visitor receives the elements of an output tree. Returning an error stops
// the walk.
type Visitor interface {
	Enum(e *Enum) error
	Peripheral(p *Peripheral) error
	Item(p *Peripheral, item Item) error
	Interrupt(irq *Interrupt) error
}

// Walk traverses the output tree: all enums, then every peripheral followed
// by its items in address order, then the interrupt table.
func Walk(o *Output, v Visitor) error {
	for _, e := range o.Enums {
		if err := v.Enum(e); err != nil {
			return err
		}
	}

	for _, p := range o.Peripherals {
		if err := v.Peripheral(p); err != nil {
			return err
		}
		for _, item := range p.Items {
			if err := v.Item(p, item); err != nil {
				return err
			}
		}
	}

	for _, irq := range o.Interrupts {
		if err := v.Interrupt(irq); err != nil {
			return err
		}
	}
	return nil
}
