package model

import (
	"fmt"

	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// FeatureRef addresses one feature of an Input.
type FeatureRef struct {
	Layer  int
	Column int
}

func (f FeatureRef) String() string { return fmt.Sprintf("[%d][%d]", f.Layer, f.Column) }

// Restrictions is the compiled form of a constraint list: what an individual
// may read and which operations it may use.
type Restrictions struct {
	Shape      data.Shape
	Features   []FeatureRef
	Operations []string
	// MaxDepth bounds structural depth. Zero leaves the representation default.
	MaxDepth int
}

// AllowsFeature reports whether f may be read.
func (r Restrictions) AllowsFeature(f FeatureRef) bool {
	for _, g := range r.Features {
		if g == f {
			return true
		}
	}
	return false
}

// AllowsOperation reports whether the named operation may be used.
func (r Restrictions) AllowsOperation(name string) bool {
	for _, op := range r.Operations {
		if op == name {
			return true
		}
	}
	return false
}

// Constraint narrows Restrictions. Apply returns a *errors.ConfigurationError
// when the constraint cannot be satisfied.
type Constraint interface {
	Apply(r *Restrictions) error
	String() string
}

// ForbidFeature removes one feature.
type ForbidFeature struct {
	Feature FeatureRef
}

func (c ForbidFeature) Apply(r *Restrictions) error {
	if err := checkFeature(r.Shape, c.Feature); err != nil {
		return err
	}
	kept := r.Features[:0:0]
	for _, f := range r.Features {
		if f != c.Feature {
			kept = append(kept, f)
		}
	}
	r.Features = kept
	return nil
}

func (c ForbidFeature) String() string { return "forbid_feature" + c.Feature.String() }

// AllowOnlyFeatures keeps only the listed features.
type AllowOnlyFeatures struct {
	Features []FeatureRef
}

func (c AllowOnlyFeatures) Apply(r *Restrictions) error {
	if len(c.Features) == 0 {
		return errors.NewConfigurationError("allow_only_features", "feature list must not be empty", c.Features)
	}
	allowed := make(map[FeatureRef]bool, len(c.Features))
	for _, f := range c.Features {
		if err := checkFeature(r.Shape, f); err != nil {
			return err
		}
		allowed[f] = true
	}
	kept := r.Features[:0:0]
	for _, f := range r.Features {
		if allowed[f] {
			kept = append(kept, f)
		}
	}
	r.Features = kept
	return nil
}

func (c AllowOnlyFeatures) String() string { return fmt.Sprintf("allow_only_features%v", c.Features) }

// ForbidOperation removes one operation by name.
type ForbidOperation struct {
	Name string
}

func (c ForbidOperation) Apply(r *Restrictions) error {
	if c.Name == "" {
		return errors.NewConfigurationError("forbid_operation", "operation name must not be empty", c.Name)
	}
	kept := r.Operations[:0:0]
	for _, op := range r.Operations {
		if op != c.Name {
			kept = append(kept, op)
		}
	}
	r.Operations = kept
	return nil
}

func (c ForbidOperation) String() string { return "forbid_operation(" + c.Name + ")" }

// MaxDepth bounds the structural depth of individuals.
type MaxDepth struct {
	Depth int
}

func (c MaxDepth) Apply(r *Restrictions) error {
	if c.Depth < 1 {
		return errors.NewConfigurationError("max_depth", "must be at least 1", c.Depth)
	}
	if r.MaxDepth != 0 && r.MaxDepth != c.Depth {
		return errors.NewConfigurationError("max_depth", fmt.Sprintf("conflicts with an earlier max depth of %d", r.MaxDepth), c.Depth)
	}
	r.MaxDepth = c.Depth
	return nil
}

func (c MaxDepth) String() string { return fmt.Sprintf("max_depth(%d)", c.Depth) }

// Compile applies constraints in order to the unrestricted feature space of
// shape and the operation set ops. It fails when a constraint is malformed,
// when constraints contradict each other, or when no feature remains.
func Compile(shape data.Shape, ops []string, constraints ...Constraint) (Restrictions, error) {
	r := Restrictions{
		Shape:      shape,
		Operations: append([]string(nil), ops...),
	}
	for layer := 0; layer < shape.Rows; layer++ {
		for col := 0; col < shape.Cols; col++ {
			r.Features = append(r.Features, FeatureRef{Layer: layer, Column: col})
		}
	}

	for _, c := range constraints {
		if c == nil {
			continue
		}
		// Forbidding the same operation twice is allowed, an unknown one is not.
		if fo, ok := c.(ForbidOperation); ok && fo.Name != "" && !contains(ops, fo.Name) {
			return Restrictions{}, errors.NewConfigurationError("forbid_operation", "unknown operation", fo.Name)
		}
		if err := c.Apply(&r); err != nil {
			return Restrictions{}, err
		}
	}
	if len(r.Features) == 0 {
		return Restrictions{}, errors.NewConfigurationError("constraints", "no input feature remains usable", describe(constraints))
	}
	return r, nil
}

func checkFeature(shape data.Shape, f FeatureRef) error {
	if f.Layer < 0 || f.Layer >= shape.Rows || f.Column < 0 || f.Column >= shape.Cols {
		return errors.NewConfigurationError("feature", fmt.Sprintf("outside input shape %s", shape), f.String())
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func describe(constraints []Constraint) []string {
	out := make([]string, 0, len(constraints))
	for _, c := range constraints {
		if c != nil {
			out = append(out, c.String())
		}
	}
	return out
}
