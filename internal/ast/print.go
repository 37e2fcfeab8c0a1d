package ast

import (
	"fmt"
	"strings"
)

// Dump renders a file as an indented outline for the 'parse' CLI
// command and golden tests. It is not a pretty-printer: output is
// stable but not valid source.
func Dump(f *File) string {
	var b strings.Builder
	fmt.Fprintf(&b, "file %s\n", f.Path)
	for _, it := range f.Items {
		dumpItem(&b, it, 1)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
}

func dumpItem(b *strings.Builder, it *Item, depth int) {
	indent(b, depth)
	if it.Vis == VisPublic {
		b.WriteString("pub ")
	}
	switch data := it.Data.(type) {
	case *ModItem:
		fmt.Fprintf(b, "mod %s\n", data.Name.Name)
		for _, child := range data.Items {
			dumpItem(b, child, depth+1)
		}
	case *UseItem:
		if data.Glob {
			fmt.Fprintf(b, "use %s::*\n", data.Path)
		} else if data.Alias != nil {
			fmt.Fprintf(b, "use %s as %s\n", data.Path, data.Alias.Name)
		} else {
			fmt.Fprintf(b, "use %s\n", data.Path)
		}
	case *FnItem:
		fmt.Fprintf(b, "fn %s/%d", data.Name.Name, len(data.Params))
		if len(data.Generics) > 0 {
			fmt.Fprintf(b, " generics=%d", len(data.Generics))
		}
		if data.Purity != PurityPure {
			fmt.Fprintf(b, " %s", data.Purity)
		}
		if data.Payable {
			b.WriteString(" payable")
		}
		if data.Body == nil {
			b.WriteString(" (decl)")
		}
		b.WriteByte('\n')
	case *StructItem:
		fmt.Fprintf(b, "struct %s fields=%d\n", data.Name.Name, len(data.Fields))
	case *EnumItem:
		fmt.Fprintf(b, "enum %s variants=%d\n", data.Name.Name, len(data.Variants))
	case *TraitItem:
		fmt.Fprintf(b, "trait %s methods=%d\n", data.Name.Name, len(data.Methods))
	case *ImplItem:
		if data.Trait != nil {
			fmt.Fprintf(b, "impl %s for %s methods=%d\n", data.Trait.Path, typeLabel(data.SelfType), len(data.Methods))
		} else {
			fmt.Fprintf(b, "impl %s methods=%d\n", typeLabel(data.SelfType), len(data.Methods))
		}
	case *ConstItem:
		fmt.Fprintf(b, "const %s\n", data.Name.Name)
	case *StorageItem:
		fmt.Fprintf(b, "storage fields=%d", len(data.Fields))
		if data.Namespace != "" {
			fmt.Fprintf(b, " ns=%s", data.Namespace)
		}
		b.WriteByte('\n')
	case *ConfigurableItem:
		fmt.Fprintf(b, "configurable entries=%d\n", len(data.Entries))
	case *AbiItem:
		fmt.Fprintf(b, "abi %s methods=%d\n", data.Name.Name, len(data.Methods))
	default:
		fmt.Fprintf(b, "%s\n", it.Kind)
	}
}

func typeLabel(t *TypeExpr) string {
	if t == nil {
		return "_"
	}
	switch data := t.Data.(type) {
	case *NamedType:
		return data.Path.String()
	case *TupleType:
		if len(data.Elems) == 0 {
			return "()"
		}
		parts := make([]string, len(data.Elems))
		for i, e := range data.Elems {
			parts[i] = typeLabel(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ArrayType:
		return "[" + typeLabel(data.Elem) + "; _]"
	case *AssocType:
		return typeLabel(data.Base) + "::" + data.Name.Name
	default:
		return t.Kind.String()
	}
}
