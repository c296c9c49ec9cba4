package core

type ColumnType int

const (
	TextType ColumnType = iota
	IntType
	FloatType
)

// Numeric reports whether values of the column compare numerically.
func (t ColumnType) Numeric() bool {
	return t == IntType || t == FloatType
}

func (t ColumnType) String() string {
	switch t {
	case IntType:
		return "int"
	case FloatType:
		return "float"
	default:
		return "text"
	}
}

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// WidenType returns the narrowest type able to hold values of both a and b.
// Mixing text with a numeric type yields TextType.
func WidenType(a, b ColumnType) ColumnType {
	if a == b {
		return a
	}
	if a.Numeric() && b.Numeric() {
		return FloatType
	}
	return TextType
}
