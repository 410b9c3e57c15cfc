package shader

import (
	"strconv"
	"strings"
)

// namer hands out unique GLSL identifiers. Base names are sanitized to
// [A-Za-z0-9_] and prefixed so they can never collide with user code
// that follows GLSL naming conventions.
type namer struct {
	used    map[string]struct{}
	counter int
}

func (n *namer) init() {
	n.used = make(map[string]struct{})
}

// next returns a fresh identifier derived from base.
func (n *namer) next(base string) Ident {
	name := "_" + sanitize(base)
	if _, taken := n.used[name]; !taken {
		n.used[name] = struct{}{}
		return Ident(name)
	}
	for {
		n.counter++
		candidate := name + "_" + strconv.Itoa(n.counter)
		if _, taken := n.used[candidate]; !taken {
			n.used[candidate] = struct{}{}
			return Ident(candidate)
		}
	}
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "ident"
	}
	return b.String()
}
