package program

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/evoclass/core/model"
	"github.com/YuminosukeSato/evoclass/data"
)

type nodeKind uint8

const (
	constNode nodeKind = iota
	featureNode
	opNode
)

// node is one vertex of an expression tree. Trees are never modified after
// they are reachable from a Forest; editing works on copies.
type node struct {
	kind    nodeKind
	value   float64
	feature model.FeatureRef
	op      int
	left    *node
	right   *node
}

func (n *node) eval(in *data.Input) float64 {
	switch n.kind {
	case constNode:
		return n.value
	case featureNode:
		return in.At(n.feature.Layer, n.feature.Column)
	}
	a := n.left.eval(in)
	var b float64
	if n.right != nil {
		b = n.right.eval(in)
	}
	return apply(n.op, a, b)
}

func (n *node) clone() *node {
	if n == nil {
		return nil
	}
	c := *n
	c.left = n.left.clone()
	c.right = n.right.clone()
	return &c
}

func (n *node) size() int {
	if n == nil {
		return 0
	}
	return 1 + n.left.size() + n.right.size()
}

func (n *node) depth() int {
	if n == nil {
		return 0
	}
	l, r := n.left.depth(), n.right.depth()
	if r > l {
		l = r
	}
	return 1 + l
}

type located struct {
	n     *node
	level int // 1 for the root
}

// collect lists nodes in pre-order with their level.
func (n *node) collect(level int, out []located) []located {
	if n == nil {
		return out
	}
	out = append(out, located{n: n, level: level})
	out = n.left.collect(level+1, out)
	return n.right.collect(level+1, out)
}

func (n *node) write(b *strings.Builder) {
	switch n.kind {
	case constNode:
		b.WriteString(strconv.FormatFloat(n.value, 'g', -1, 64))
	case featureNode:
		b.WriteString("x")
		b.WriteString(n.feature.String())
	default:
		b.WriteByte('(')
		b.WriteString(operations[n.op].name)
		b.WriteByte(' ')
		n.left.write(b)
		if n.right != nil {
			b.WriteByte(' ')
			n.right.write(b)
		}
		b.WriteByte(')')
	}
}

func (n *node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

// generator grows random trees within restrictions.
type generator struct {
	rng      *rand.Rand
	r        model.Restrictions
	ops      []int
	constMax int
}

func newGenerator(rng *rand.Rand, r model.Restrictions, constMax int) *generator {
	g := &generator{rng: rng, r: r, constMax: constMax}
	for _, name := range r.Operations {
		if i, ok := opIndex[name]; ok {
			g.ops = append(g.ops, i)
		}
	}
	return g
}

// grow builds a tree of depth at most maxDepth. Shallower levels favour
// operations, deeper ones terminals.
func (g *generator) grow(maxDepth int) *node {
	if maxDepth <= 1 || len(g.ops) == 0 || g.rng.Float64() < 1/float64(maxDepth) {
		return g.terminal()
	}
	op := g.ops[g.rng.Intn(len(g.ops))]
	n := &node{kind: opNode, op: op, left: g.grow(maxDepth - 1)}
	if operations[op].arity == 2 {
		n.right = g.grow(maxDepth - 1)
	}
	return n
}

func (g *generator) terminal() *node {
	if len(g.r.Features) > 0 && g.rng.Intn(2) == 0 {
		return &node{kind: featureNode, feature: g.r.Features[g.rng.Intn(len(g.r.Features))]}
	}
	return &node{kind: constNode, value: g.constant()}
}

func (g *generator) constant() float64 {
	if g.rng.Intn(2) == 0 {
		return float64(g.rng.Intn(2*g.constMax+1) - g.constMax)
	}
	return g.rng.NormFloat64() * float64(g.constMax) / 2
}

// pointMutate changes one node in place without changing the tree shape.
func (g *generator) pointMutate(n *node) {
	switch n.kind {
	case constNode:
		if g.rng.Intn(2) == 0 {
			n.value += g.rng.NormFloat64()
		} else {
			n.value = g.constant()
		}
	case featureNode:
		n.feature = g.r.Features[g.rng.Intn(len(g.r.Features))]
	case opNode:
		var same []int
		for _, op := range g.ops {
			if operations[op].arity == operations[n.op].arity {
				same = append(same, op)
			}
		}
		if len(same) > 0 {
			n.op = same[g.rng.Intn(len(same))]
		}
	}
}
