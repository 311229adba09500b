package retrace

import (
	"strings"
)

// templatePart is either literal text or a group reference (group >= 0).
type templatePart struct {
	literal string
	group   int
}

// parseTemplate splits a replacement template into literal text and group
// references. groups is the number of capturing groups of the pattern.
//
// "$N" takes as many digits as still name an existing group, so with ten
// groups "$10" is group 10 while with nine it is group 1 followed by "0".
// "${N}" names a group explicitly, "$$" is a dollar sign and any other "$"
// is literal.
func parseTemplate(template string, groups int) ([]templatePart, error) {
	var parts []templatePart
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, templatePart{literal: lit.String(), group: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 == len(template) {
			lit.WriteByte(c)
			continue
		}
		start := i
		next := template[i+1]
		switch {
		case next == '$':
			lit.WriteByte('$')
			i++
		case isDigit(next):
			index := int(next - '0')
			if index > groups {
				return nil, &TemplateError{Pos: start, Group: index}
			}
			i++
			for i+1 < len(template) && isDigit(template[i+1]) && index*10+int(template[i+1]-'0') <= groups {
				index = index*10 + int(template[i+1]-'0')
				i++
			}
			flush()
			parts = append(parts, templatePart{group: index})
		case next == '{':
			end := i + 2
			for end < len(template) && isDigit(template[end]) {
				end++
			}
			if end == i+2 || end == len(template) || template[end] != '}' {
				lit.WriteByte('$')
				continue
			}
			index := 0
			for _, d := range []byte(template[i+2 : end]) {
				index = min(index*10+int(d-'0'), groups+1)
			}
			if index > groups {
				return nil, &TemplateError{Pos: start, Group: index}
			}
			flush()
			parts = append(parts, templatePart{group: index})
			i = end
		default:
			lit.WriteByte('$')
		}
	}
	flush()
	return parts, nil
}

// expand appends the template instantiated for m to b. Groups that did not
// participate expand to nothing.
func expand(b *strings.Builder, parts []templatePart, m *Match) {
	for _, part := range parts {
		if part.group < 0 {
			b.WriteString(part.literal)
			continue
		}
		b.WriteString(m.Groups[part.group].String())
	}
}

// ReplaceAll returns a copy of text in which every match of p is replaced by
// the expansion of template. Text between matches is copied unchanged.
//
// A template that references a group p does not have yields a
// *TemplateError before any matching is done.
func (p *Pattern) ReplaceAll(text, template string) (string, error) {
	parts, err := parseTemplate(template, p.groups)
	if err != nil {
		return "", err
	}
	return p.replace(text, -1, func(b *strings.Builder, m *Match) {
		expand(b, parts, m)
	})
}

// ReplaceFirst is like ReplaceAll but replaces only the first match.
func (p *Pattern) ReplaceFirst(text, template string) (string, error) {
	parts, err := parseTemplate(template, p.groups)
	if err != nil {
		return "", err
	}
	return p.replace(text, 1, func(b *strings.Builder, m *Match) {
		expand(b, parts, m)
	})
}

// ReplaceAllFunc returns a copy of text in which every match of p is
// replaced by the return value of repl applied to the match. The
// replacement is used as is, without template expansion.
func (p *Pattern) ReplaceAllFunc(text string, repl func(*Match) string) (string, error) {
	return p.replace(text, -1, func(b *strings.Builder, m *Match) {
		b.WriteString(repl(m))
	})
}

// ReplaceAll replaces every match of p in text with the expansion of
// template. It is the same as p.ReplaceAll(text, template).
func ReplaceAll(text string, p *Pattern, template string) (string, error) {
	return p.ReplaceAll(text, template)
}

// replace rewrites the first n matches, or all of them if n < 0.
func (p *Pattern) replace(text string, n int, write func(*strings.Builder, *Match)) (string, error) {
	var b strings.Builder
	last := 0
	count := 0
	for m, err := range p.All(text) {
		if err != nil {
			return "", err
		}
		start, end := m.Span()
		b.WriteString(text[last:start])
		write(&b, m)
		last = end
		count++
		if count == n {
			break
		}
	}
	if count == 0 {
		return text, nil
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
