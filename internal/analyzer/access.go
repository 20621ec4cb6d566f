package analyzer

import "github.com/retroenv/retrosvd/internal/device"

// InferRegisterAccess returns the effective access mode of a register.
// A declared mode is used as is. Otherwise a register whose fields are all
// read-only is read-only, one whose fields are all write-only is write-only,
// and every other register is read-write.
func InferRegisterAccess(r *device.Register) device.Access {
	if r.Access != device.AccessUnset {
		return r.Access
	}
	if len(r.Fields) == 0 {
		return device.AccessReadWrite
	}

	allRead, allWrite := true, true
	for _, f := range r.Fields {
		allRead = allRead && f.Access == device.AccessRead
		allWrite = allWrite && f.Access == device.AccessWrite
	}

	switch {
	case allRead:
		return device.AccessRead
	case allWrite:
		return device.AccessWrite
	default:
		return device.AccessReadWrite
	}
}

// fieldAccess returns the effective access mode of a field, fields without
// a declared mode inherit the mode of their register.
func fieldAccess(f *device.Field, register device.Access) device.Access {
	if f.Access != device.AccessUnset {
		return f.Access
	}
	return register
}

// contradicts returns whether the declared register access shares no
// direction with any of the declared field access modes. Registers or
// fields without declared modes never contradict.
func contradicts(r *device.Register) bool {
	if r.Access == device.AccessUnset {
		return false
	}

	declared := 0
	for _, f := range r.Fields {
		if f.Access == device.AccessUnset {
			continue
		}
		declared++
		if r.Access.CanRead() && f.Access.CanRead() || r.Access.CanWrite() && f.Access.CanWrite() {
			return false
		}
	}
	return declared > 0
}
