// Package contentstream parses decoded PDF page content streams into the
// sequence of operations they are made of. Only the object kinds that can
// appear inside content streams are modeled; indirect references, streams
// and cross reference structures never occur there.
package contentstream

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectType identifies the concrete type of an operand.
type ObjectType int

const (
	TypeNull ObjectType = iota
	TypeBool
	TypeNumber
	TypeString
	TypeName
	TypeArray
	TypeDictionary
)

func (t ObjectType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeName:
		return "name"
	case TypeArray:
		return "array"
	case TypeDictionary:
		return "dictionary"
	default:
		return "unknown"
	}
}

// Object is a single operand of a content stream operation.
type Object interface {
	Type() ObjectType
	String() string
}

// Null is the PDF null object.
type Null struct{}

func (n *Null) Type() ObjectType { return TypeNull }
func (n *Null) String() string   { return "null" }

// Bool is a boolean operand.
type Bool struct {
	Value bool
}

func (b *Bool) Type() ObjectType { return TypeBool }
func (b *Bool) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// Number is a numeric operand. Content stream grammars do not distinguish
// integers from reals, so all numbers carry a float value.
type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return TypeNumber }
func (n *Number) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// String is a string operand. The bytes are kept raw; how they decode into
// text depends on the encoding of the font that is active when they are
// shown.
type String struct {
	Value []byte
}

func (s *String) Type() ObjectType { return TypeString }
func (s *String) String() string   { return fmt.Sprintf("(%s)", s.Value) }

// Name is a name operand without its leading solidus.
type Name struct {
	Value string
}

func (n *Name) Type() ObjectType { return TypeName }
func (n *Name) String() string   { return "/" + n.Value }

// Array is an array operand.
type Array struct {
	Items []Object
}

func (a *Array) Type() ObjectType { return TypeArray }
func (a *Array) String() string {
	parts := make([]string, len(a.Items))
	for i, item := range a.Items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Dictionary is a dictionary operand, e.g. the property list of a marked
// content operator.
type Dictionary struct {
	Items map[string]Object
}

func (d *Dictionary) Type() ObjectType { return TypeDictionary }
func (d *Dictionary) String() string {
	parts := make([]string, 0, len(d.Items))
	for key, value := range d.Items {
		parts = append(parts, "/"+key+" "+value.String())
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Operation is one operator of a content stream together with the operands
// that preceded it.
type Operation struct {
	Operator string
	Operands []Object
}

func (op *Operation) String() string {
	parts := make([]string, 0, len(op.Operands)+1)
	for _, operand := range op.Operands {
		parts = append(parts, operand.String())
	}
	parts = append(parts, op.Operator)
	return strings.Join(parts, " ")
}

// Float returns the i-th operand as a number.
func (op *Operation) Float(i int) (float64, error) {
	obj, err := op.operand(i)
	if err != nil {
		return 0, err
	}
	number, ok := obj.(*Number)
	if !ok {
		return 0, op.typeError(i, TypeNumber, obj)
	}
	return number.Value, nil
}

// Text returns the i-th operand as raw string bytes.
func (op *Operation) Text(i int) ([]byte, error) {
	obj, err := op.operand(i)
	if err != nil {
		return nil, err
	}
	str, ok := obj.(*String)
	if !ok {
		return nil, op.typeError(i, TypeString, obj)
	}
	return str.Value, nil
}

// Name returns the i-th operand as a name value.
func (op *Operation) Name(i int) (string, error) {
	obj, err := op.operand(i)
	if err != nil {
		return "", err
	}
	name, ok := obj.(*Name)
	if !ok {
		return "", op.typeError(i, TypeName, obj)
	}
	return name.Value, nil
}

func (op *Operation) operand(i int) (Object, error) {
	if i < 0 || i >= len(op.Operands) {
		return nil, fmt.Errorf("operator %s: missing operand %d", op.Operator, i)
	}
	return op.Operands[i], nil
}

func (op *Operation) typeError(i int, want ObjectType, got Object) error {
	return fmt.Errorf("operator %s: operand %d: expected %s, got %s", op.Operator, i, want, got.Type())
}
