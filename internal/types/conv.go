package types

// ConvKind classifies how (or whether) a value of one type can become
// another, used both for implicit-conversion checks during overload
// resolution and for explicit cast validation.
type ConvKind int

const (
	ConvNone     ConvKind = iota // not convertible at all
	ConvIdentity                 // same type
	ConvImplicit                 // always safe, no explicit cast needed
	ConvExplicit                 // needs an explicit cast; may lose information
)

// Classify reports how a value of type from converts to type to.
func Classify(from, to Type) ConvKind {
	if from.Equal(to) {
		return ConvIdentity
	}
	switch f := from.(type) {
	case Uint:
		switch t := to.(type) {
		case Uint:
			if t.Width >= f.Width {
				return ConvImplicit
			}
			return ConvExplicit
		case Int:
			return ConvExplicit
		case Bytes:
			return ConvExplicit
		}
	case Int:
		switch t := to.(type) {
		case Int:
			if t.Width >= f.Width {
				return ConvImplicit
			}
			return ConvExplicit
		case Uint:
			return ConvExplicit
		}
	case Bytes:
		switch t := to.(type) {
		case Bytes:
			if f.N == 0 || t.N == 0 {
				return ConvNone
			}
			if t.N >= f.N {
				return ConvImplicit
			}
			return ConvExplicit
		case Uint:
			return ConvExplicit
		}
	case Address:
		switch t := to.(type) {
		case Address:
			if f.Payable && !t.Payable {
				return ConvImplicit
			}
			return ConvNone
		case Uint:
			if t.Width == 160 {
				return ConvExplicit
			}
		case Bytes:
			if t.N == 20 {
				return ConvExplicit
			}
		case Contract:
			return ConvExplicit
		}
	case Contract:
		if t, ok := to.(Address); ok {
			_ = t
			return ConvImplicit
		}
	case Enum:
		if t, ok := to.(Uint); ok && t.Width >= 8 {
			return ConvExplicit
		}
	case Array:
		if t, ok := to.(Array); ok && t.Length < 0 && f.Length >= 0 && f.Elem.Equal(t.Elem) {
			return ConvImplicit // fixed array decays to dynamic array literal context
		}
	}
	return ConvNone
}

// IsImplicitlyConvertible reports whether a value of type from may be used
// where a value of type to is expected, without an explicit cast.
func IsImplicitlyConvertible(from, to Type) bool {
	k := Classify(from, to)
	return k == ConvIdentity || k == ConvImplicit
}

// IsExplicitlyConvertible reports whether an explicit cast from->to is
// permitted at all (the union of implicit and explicit conversions; a
// cast never needs to name identity or implicit separately).
func IsExplicitlyConvertible(from, to Type) bool {
	return Classify(from, to) != ConvNone
}

// WouldTruncate reports whether converting from to to can discard
// information: narrowing an integer width, narrowing fixed bytes, or
// truncating an unsigned-to-signed conversion at the same width's top bit.
func WouldTruncate(from, to Type) bool {
	switch f := from.(type) {
	case Uint:
		switch t := to.(type) {
		case Uint:
			return t.Width < f.Width
		case Int:
			return t.Width <= f.Width
		}
	case Int:
		if t, ok := to.(Int); ok {
			return t.Width < f.Width
		}
		if t, ok := to.(Uint); ok {
			return t.Width < f.Width
		}
	case Bytes:
		if t, ok := to.(Bytes); ok {
			return f.N > 0 && t.N > 0 && t.N < f.N
		}
	}
	return false
}
