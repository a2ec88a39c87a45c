package jvm

import (
	"errors"
	"strings"
)

var errSignature = errors.New("malformed signature")

// ClassMapper maps internal class names.
type ClassMapper interface {
	MapClass(name string) string
}

// RemapSignature rewrites every class reference in a generic class, method or field signature.
// Inner class suffixes follow their mapped outer class. A malformed signature is returned unchanged.
func RemapSignature(m ClassMapper, sig string) string {
	if !strings.Contains(sig, "L") {
		return sig
	}
	p := &sigParser{src: sig, m: m}
	p.out.Grow(len(sig))
	if err := p.parse(); err != nil {
		return sig
	}
	return p.out.String()
}

type sigParser struct {
	src string
	pos int
	out strings.Builder
	m   ClassMapper
}

func (p *sigParser) parse() error {
	if p.peek() == '<' {
		if err := p.typeParameters(); err != nil {
			return err
		}
	}
	if p.peek() == '(' {
		return p.method()
	}
	for p.pos < len(p.src) {
		if err := p.referenceType(); err != nil {
			return err
		}
	}
	return nil
}

func (p *sigParser) method() error {
	p.copy(1)
	for p.peek() != ')' {
		if p.pos >= len(p.src) {
			return errSignature
		}
		if err := p.javaType(); err != nil {
			return err
		}
	}
	p.copy(1)
	if p.peek() == 'V' {
		p.copy(1)
	} else if err := p.javaType(); err != nil {
		return err
	}
	for p.peek() == '^' {
		p.copy(1)
		if err := p.referenceType(); err != nil {
			return err
		}
	}
	if p.pos != len(p.src) {
		return errSignature
	}
	return nil
}

func (p *sigParser) typeParameters() error {
	p.copy(1)
	for p.peek() != '>' {
		colon := strings.IndexByte(p.src[p.pos:], ':')
		if colon <= 0 {
			return errSignature
		}
		p.copy(colon)
		// class bound may be empty, interface bounds each start with ':'
		for p.peek() == ':' {
			p.copy(1)
			switch p.peek() {
			case 'L', 'T', '[':
				if err := p.referenceType(); err != nil {
					return err
				}
			}
		}
	}
	p.copy(1)
	return nil
}

func (p *sigParser) javaType() error {
	switch p.peek() {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		p.copy(1)
		return nil
	}
	return p.referenceType()
}

func (p *sigParser) referenceType() error {
	switch p.peek() {
	case 'L':
		return p.classType()
	case 'T':
		end := strings.IndexByte(p.src[p.pos:], ';')
		if end < 0 {
			return errSignature
		}
		p.copy(end + 1)
		return nil
	case '[':
		p.copy(1)
		return p.javaType()
	}
	return errSignature
}

func (p *sigParser) classType() error {
	p.copy(1)
	name := p.ident()
	if name == "" {
		return errSignature
	}
	mapped := p.m.MapClass(name)
	p.out.WriteString(mapped)

	for {
		if p.peek() == '<' {
			if err := p.typeArguments(); err != nil {
				return err
			}
		}
		switch p.peek() {
		case ';':
			p.copy(1)
			return nil
		case '.':
			p.copy(1)
			simple := p.ident()
			if simple == "" {
				return errSignature
			}
			name += "$" + simple
			inner := p.m.MapClass(name)
			if strings.HasPrefix(inner, mapped+"$") {
				simple = inner[len(mapped)+1:]
			}
			p.out.WriteString(simple)
			mapped = inner
		default:
			return errSignature
		}
	}
}

func (p *sigParser) typeArguments() error {
	p.copy(1)
	for p.peek() != '>' {
		switch p.peek() {
		case '*':
			p.copy(1)
			continue
		case '+', '-':
			p.copy(1)
		case 0:
			return errSignature
		}
		if err := p.referenceType(); err != nil {
			return err
		}
	}
	p.copy(1)
	return nil
}

// ident consumes a class name segment up to the next '<', '.' or ';' without copying it.
func (p *sigParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '<', '.', ';':
			return p.src[start:p.pos]
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *sigParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *sigParser) copy(n int) {
	p.out.WriteString(p.src[p.pos : p.pos+n])
	p.pos += n
}
