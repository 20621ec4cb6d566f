package derive

import (
	"strings"

	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/retrosvd/internal/device"
)

const enumKind = "enumerated values"

// location identifies the field an enumerated value set belongs to.
type location struct {
	peripheral *device.Peripheral
	register   *device.Register
	field      *device.Field
}

func (l location) path() string {
	return device.Path(l.peripheral.Name, l.register.Name, l.field.Name)
}

// key identifies a set for cycle detection, unnamed sets are identified by
// their usage.
func (l location) key(s *device.EnumSet) string {
	name := s.Name
	if name == "" {
		name = "<" + s.Usage.String() + ">"
	}
	return device.Path(l.path(), name)
}

// enumResolver resolves derivedFrom references of enumerated value sets.
// The device it searches is read only, resolved sets are written to copies.
type enumResolver struct {
	dev *device.Device
}

func newEnumResolver(dev *device.Device) *enumResolver {
	return &enumResolver{dev: dev}
}

func (r *enumResolver) resolvePeripheral(p *device.Peripheral) (*device.Peripheral, error) {
	res := p.Clone()

	for i, reg := range p.Registers {
		for j, f := range reg.Fields {
			loc := location{peripheral: p, register: reg, field: f}
			target := res.Registers[i].Fields[j]

			read, err := r.resolveSet(f.Read, loc)
			if err != nil {
				return nil, err
			}
			target.Read = read

			if f.Write == f.Read {
				target.Write = read
				continue
			}
			write, err := r.resolveSet(f.Write, loc)
			if err != nil {
				return nil, err
			}
			target.Write = write
		}
	}
	return res, nil
}

// resolveSet returns a copy of the set with the values of its derivation
// source. The usage and, if declared, the name of the deriving set are kept.
func (r *enumResolver) resolveSet(s *device.EnumSet, loc location) (*device.EnumSet, error) {
	if s == nil {
		return nil, nil
	}

	res := s.Clone()
	if s.DerivedFrom == "" {
		return res, nil
	}

	visited := set.New[string]()
	chain := []string{loc.key(s)}
	visited.Add(loc.key(s))

	current, currentLoc := s, loc
	for current.DerivedFrom != "" {
		src, srcLoc, ok := r.lookup(current, currentLoc)
		if !ok {
			return nil, &device.UnresolvedReferenceError{
				Scope: "field " + currentLoc.path(),
				Kind:  enumKind,
				Name:  current.DerivedFrom,
			}
		}

		key := srcLoc.key(src)
		chain = append(chain, key)
		if visited.Contains(key) {
			return nil, &device.CyclicDerivationError{Cycle: chain}
		}
		visited.Add(key)
		current, currentLoc = src, srcLoc
	}

	values := current.Clone()
	res.Values = values.Values
	res.DerivedFrom = ""
	if res.Name == "" {
		res.Name = current.Name
	}
	return res, nil
}

// lookup finds the set a derivedFrom reference names. A plain name is
// searched in the register, the peripheral and the device in that order.
// Dotted paths are relative to the peripheral, or absolute when they name
// the peripheral as well.
func (r *enumResolver) lookup(s *device.EnumSet, loc location) (*device.EnumSet, location, bool) {
	parts := strings.Split(s.DerivedFrom, ".")
	name := parts[len(parts)-1]

	switch len(parts) {
	case 1:
		if found, l, ok := findInRegister(loc.peripheral, loc.register, name, s); ok {
			return found, l, true
		}
		if found, l, ok := findInPeripheral(loc.peripheral, name, s); ok {
			return found, l, true
		}
		for _, p := range r.dev.Peripherals {
			if found, l, ok := findInPeripheral(p, name, s); ok {
				return found, l, true
			}
		}

	case 2: // field.set
		return findInField(loc.peripheral, loc.register, parts[0], name)

	case 3: // register.field.set
		reg, ok := loc.peripheral.Register(parts[0])
		if ok {
			return findInField(loc.peripheral, reg, parts[1], name)
		}

	case 4: // peripheral.register.field.set
		p, ok := r.dev.Peripheral(parts[0])
		if !ok {
			break
		}
		reg, ok := p.Register(parts[1])
		if ok {
			return findInField(p, reg, parts[2], name)
		}
	}

	return nil, location{}, false
}

func findInPeripheral(p *device.Peripheral, name string, self *device.EnumSet) (*device.EnumSet, location, bool) {
	for _, reg := range p.Registers {
		if found, l, ok := findInRegister(p, reg, name, self); ok {
			return found, l, true
		}
	}
	return nil, location{}, false
}

func findInRegister(p *device.Peripheral, reg *device.Register, name string,
	self *device.EnumSet) (*device.EnumSet, location, bool) {

	for _, f := range reg.Fields {
		for _, s := range [...]*device.EnumSet{f.Read, f.Write} {
			if s != nil && s != self && s.Name == name {
				return s, location{peripheral: p, register: reg, field: f}, true
			}
		}
	}
	return nil, location{}, false
}

func findInField(p *device.Peripheral, reg *device.Register, field, name string) (*device.EnumSet, location, bool) {
	f, ok := reg.Field(field)
	if !ok {
		return nil, location{}, false
	}
	for _, s := range [...]*device.EnumSet{f.Read, f.Write} {
		if s != nil && s.Name == name {
			return s, location{peripheral: p, register: reg, field: f}, true
		}
	}
	return nil, location{}, false
}
