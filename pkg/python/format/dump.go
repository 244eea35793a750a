// Package format renders Python syntax trees for humans.
//
// Dump prints one node per line with its byte span. Scalar fields follow the
// node name on the same line and child nodes are nested below their field
// name:
//
//	Module 0..6
//	  body:
//	    Assign 0..5
//	      targets:
//	        Name 0..1 id="a"
//	      value:
//	        Constant 4..5 value=1
package format

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/sambeau/pyfront/pkg/python/ast"
)

var (
	spannedType  = reflect.TypeOf((*ast.Spanned)(nil)).Elem()
	constantType = reflect.TypeOf((*ast.ConstantValue)(nil)).Elem()
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
	nodeType     = reflect.TypeOf(ast.Node{})
)

// Dump renders node and all of its children.
func Dump(node ast.Spanned) string {
	p := NewPrinter()
	p.Dump(node)
	return p.String()
}

// Dump writes node at the current indentation.
func (p *Printer) Dump(node ast.Spanned) {
	if node == nil || isNil(reflect.ValueOf(node)) {
		p.writeln("None")
		return
	}
	p.dumpNode(reflect.ValueOf(node))
}

func (p *Printer) dumpNode(v reflect.Value) {
	s := v
	if s.Kind() == reflect.Pointer {
		s = s.Elem()
	}
	span := v.Interface().(ast.Spanned).GetNode()

	var header strings.Builder
	fmt.Fprintf(&header, "%s %d..%d", s.Type().Name(), span.Start, span.End)

	type child struct {
		name  string
		value reflect.Value
	}
	var children []child

	for i := 0; i < s.NumField(); i++ {
		f := s.Type().Field(i)
		if f.Type == nodeType || !f.IsExported() {
			continue
		}
		fv := s.Field(i)
		name := fieldName(f.Name)
		switch {
		case isChild(fv):
			children = append(children, child{name, fv})
		case fv.Kind() == reflect.Slice && fv.Len() == 0:
			continue
		default:
			if text, ok := scalar(fv); ok {
				header.WriteString(" " + name + "=" + text)
			}
		}
	}

	p.writeln(header.String())
	p.indentInc()
	for _, c := range children {
		p.writeln(c.name + ":")
		p.indentInc()
		if c.value.Kind() == reflect.Slice {
			for j := 0; j < c.value.Len(); j++ {
				p.dumpElement(c.value.Index(j))
			}
		} else {
			p.dumpElement(c.value)
		}
		p.indentDec()
	}
	p.indentDec()
}

func (p *Printer) dumpElement(v reflect.Value) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			// dict unpacking keys and omitted slice bounds
			p.writeln("None")
			return
		}
		v = v.Elem()
	}
	if v.Type().Implements(spannedType) && !isNil(v) {
		p.dumpNode(v)
		return
	}
	if text, ok := scalar(v); ok {
		p.writeln(text)
	}
}

// isChild reports whether v holds nodes that get their own lines.
func isChild(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			return false
		}
		return v.Type().Elem().Implements(spannedType)
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return false
		}
		if v.Type().Implements(constantType) {
			return false
		}
		return v.Type().Implements(spannedType)
	}
	return false
}

func scalar(v reflect.Value) (string, bool) {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return "", false
		}
	case reflect.Slice:
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			text, ok := scalar(v.Index(i))
			if !ok {
				return "", false
			}
			parts = append(parts, text)
		}
		return "[" + strings.Join(parts, ", ") + "]", true
	}
	if v.Type().Implements(stringerType) {
		return v.Interface().(fmt.Stringer).String(), true
	}
	switch v.Kind() {
	case reflect.String:
		if v.Len() == 0 {
			return "", false
		}
		return strconv.Quote(v.String()), true
	case reflect.Bool:
		if !v.Bool() {
			return "", false
		}
		return "true", true
	case reflect.Int:
		return strconv.Itoa(int(v.Int())), true
	}
	return "", false
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return v.IsNil()
	}
	return false
}

// fieldName converts DecoratorList to decorator_list and ID to id.
func fieldName(name string) string {
	var out strings.Builder
	prevLower := false
	for _, r := range name {
		if unicode.IsUpper(r) {
			if prevLower {
				out.WriteByte('_')
			}
			r = unicode.ToLower(r)
			prevLower = false
		} else {
			prevLower = true
		}
		out.WriteRune(r)
	}
	return out.String()
}
