package mono

import (
	"strconv"
	"strings"

	"ember/internal/sema"
	"ember/internal/symbols"
	"ember/internal/types"
)

// qualifiedName renders a symbol's module path plus name, without the
// implicit root prefix.
func (m *mono) qualifiedName(sym symbols.SymbolID) string {
	s := m.table.Symbol(sym)
	path := m.table.Module(s.Owner).Path
	if path == "root" {
		return s.Name
	}
	return strings.TrimPrefix(path, "root::") + "::" + s.Name
}

// genericSuffix renders the instance's own generic arguments, e.g.
// "<u64, 4>". Frame entries below ownBase belong to the enclosing impl
// or trait and are already visible in the receiver type.
func (m *mono) genericSuffix(env []sema.GenericParam, ownBase int, sub types.Subst) string {
	var parts []string
	for i := range env {
		g := &env[i]
		if int(g.Index) < ownBase {
			continue
		}
		if g.IsConst {
			var v uint64
			if int(g.Index) < len(sub.Consts) {
				v = sub.Consts[g.Index]
			}
			parts = append(parts, strconv.FormatUint(v, 10))
			continue
		}
		if int(g.Index) < len(sub.Types) && sub.Types[g.Index].IsValid() {
			parts = append(parts, m.in.String(sub.Types[g.Index]))
		} else {
			parts = append(parts, "?")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// instanceKey builds the structural deduplication key: the base name,
// the declaring trait if any, and every frame slot rendered. Structural
// type rendering makes equal instantiations collide by construction.
func (m *mono) instanceKey(base string, trait symbols.SymbolID, sub types.Subst) string {
	var b strings.Builder
	b.WriteString(base)
	if trait != symbols.NoSymbolID {
		b.WriteString("#t")
		b.WriteString(strconv.FormatUint(uint64(trait), 10))
	}
	b.WriteByte('|')
	for i := range sub.Types {
		if i > 0 {
			b.WriteByte(',')
		}
		if sub.Types[i].IsValid() {
			b.WriteString(m.in.String(sub.Types[i]))
		} else if i < len(sub.Consts) {
			b.WriteByte('c')
			b.WriteString(strconv.FormatUint(sub.Consts[i], 10))
		}
	}
	return b.String()
}
