package csharp

import (
	"strconv"

	"github.com/Robbilie/openapi-generator/internal/spec"
)

// Reconcile aligns a child model with the parent it extends:
//
//  1. enum properties redeclared unchanged by the child are dropped, the
//     child inherits them instead
//  2. parent properties the child does not declare are copied into
//     ParentVars and marked inherited
//  3. a discriminator property without a schema default gets the child's
//     schema name as its quoted default. The discriminator is the one of the
//     nearest ancestor declaring it, so the parent must be reconciled first
//  4. duplicates are removed from ReadWriteVars, keeping the first
//
// The parent is never modified. A nil parent leaves the child unchanged.
func Reconcile(child, parent *spec.Model) *spec.Model {
	if child == nil || parent == nil {
		return child
	}
	parentVars := parent.EffectiveVars()
	disc := parent.Discriminator
	if disc == nil {
		disc = parent.InheritedDiscriminator
	}
	child.InheritedDiscriminator = disc

	if child.HasEnums && hasEnum(parentVars) {
		child.Vars = removeRedundantEnums(child.Vars, parentVars)
	}

	declared := make(map[string]struct{}, len(child.Vars))
	for _, p := range child.Vars {
		declared[p.Name] = struct{}{}
	}
	child.ParentVars = nil
	for _, p := range parentVars {
		if _, ok := declared[p.Name]; ok {
			continue
		}
		inherited := p.Clone()
		inherited.IsInherited = true
		if inherited.IsDiscriminatorDefault {
			// assigned for the parent, not taken from the schema
			inherited.DefaultValue = nil
			inherited.IsDiscriminatorDefault = false
		}
		child.ParentVars = append(child.ParentVars, inherited)
	}
	child.RefreshGroups()

	if disc != nil {
		for _, p := range child.ReadWriteVars {
			if p.DefaultValue == nil && p.BaseName == disc.PropertyName {
				v := strconv.Quote(child.Name)
				p.DefaultValue = &v
				p.IsDiscriminatorDefault = true
			}
		}
	}

	child.ReadWriteVars = dedupProperties(child.ReadWriteVars)
	return child
}

func hasEnum(props []*spec.Property) bool {
	for _, p := range props {
		if p.IsEnum {
			return true
		}
	}
	return false
}

// removeRedundantEnums drops child enum properties equivalent to a parent
// enum property.
func removeRedundantEnums(child, parent []*spec.Property) []*spec.Property {
	out := child[:0:0]
	for _, c := range child {
		redundant := false
		if c.IsEnum {
			for _, p := range parent {
				if p.IsEnum && c.Equivalent(p) {
					redundant = true
					break
				}
			}
		}
		if !redundant {
			out = append(out, c)
		}
	}
	return out
}

// dedupProperties removes later structural duplicates over the whole list.
func dedupProperties(props []*spec.Property) []*spec.Property {
	if len(props) < 2 {
		return props
	}
	out := make([]*spec.Property, 0, len(props))
	for _, p := range props {
		dup := false
		for _, kept := range out {
			if kept == p || kept.Equivalent(p) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}
