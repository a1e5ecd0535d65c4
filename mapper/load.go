package mapper

import (
	"fmt"
	"math/big"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"

	"github.com/event4u-app/data-helpers/query"
)

// yamlMapping is the YAML document shape:
//
//	name: invoice
//	pairs:
//	  - target: invoice.customer
//	    source: "{{ order.customer.name | ucfirst }}"
//	    skip_null: true
//	    query:
//	      where: { qty: { ">=": 2 } }
//	      order by: sku
type yamlMapping struct {
	Name  string     `yaml:"name"`
	Pairs []yamlPair `yaml:"pairs"`
}

type yamlPair struct {
	Target   string         `yaml:"target"`
	Source   string         `yaml:"source"`
	SkipNull bool           `yaml:"skip_null"`
	Reindex  bool           `yaml:"reindex"`
	Query    map[string]any `yaml:"query"`
}

// LoadMappingYAML parses a mapping definition from YAML.
func LoadMappingYAML(data []byte) (*Mapping, error) {
	var doc yamlMapping
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mapping yaml: %w", err)
	}
	m := &Mapping{Name: doc.Name, Pairs: make([]Pair, 0, len(doc.Pairs))}
	for i, p := range doc.Pairs {
		if p.Target == "" {
			return nil, fmt.Errorf("mapping yaml: pair %d has no target", i)
		}
		pair := Pair{Target: p.Target, Source: p.Source, SkipNull: p.SkipNull, Reindex: p.Reindex}
		if len(p.Query) > 0 {
			q, err := query.ParseQuery(p.Query)
			if err != nil {
				return nil, fmt.Errorf("mapping yaml: pair %d query: %w", i, err)
			}
			pair.Query = q
		}
		m.Pairs = append(m.Pairs, pair)
	}
	return m, nil
}

// hclRoot is the HCL file shape:
//
//	mapping "invoice" {
//	  pair "invoice.customer" {
//	    source = "{{ order.customer.name | ucfirst }}"
//	  }
//	  pair "lines.*" {
//	    source = "{{ order.items.* }}"
//	    query {
//	      where    = { qty = { ">=" = 2 } }
//	      order_by = ["sku"]
//	      limit    = 1
//	    }
//	  }
//	}
type hclRoot struct {
	Mapping hclMapping `hcl:"mapping,block"`
}

type hclMapping struct {
	Name  string    `hcl:"name,label"`
	Pairs []hclPair `hcl:"pair,block"`
}

type hclPair struct {
	Target   string    `hcl:"target,label"`
	Source   string    `hcl:"source"`
	SkipNull bool      `hcl:"skip_null,optional"`
	Reindex  bool      `hcl:"reindex,optional"`
	Query    *hclQuery `hcl:"query,block"`
}

// hclQuery keeps the structurally dynamic attributes as cty values; they
// convert to plain Go trees for query.ParseQuery.
type hclQuery struct {
	Where      cty.Value `hcl:"where,optional"`
	Distinct   string    `hcl:"distinct,optional"`
	Like       cty.Value `hcl:"like,optional"`
	GroupBy    []string  `hcl:"group_by,optional"`
	Aggregates cty.Value `hcl:"aggregates,optional"`
	Having     cty.Value `hcl:"having,optional"`
	OrderBy    cty.Value `hcl:"order_by,optional"`
	Offset     int       `hcl:"offset,optional"`
	Limit      int       `hcl:"limit,optional"`
}

// LoadMappingHCL parses a mapping definition from HCL. The filename only
// selects the syntax (.hcl or .json) and labels diagnostics.
func LoadMappingHCL(filename string, data []byte) (*Mapping, error) {
	var root hclRoot
	if err := hclsimple.Decode(filename, data, nil, &root); err != nil {
		return nil, fmt.Errorf("mapping hcl: %w", err)
	}
	m := &Mapping{Name: root.Mapping.Name, Pairs: make([]Pair, 0, len(root.Mapping.Pairs))}
	for i, p := range root.Mapping.Pairs {
		pair := Pair{Target: p.Target, Source: p.Source, SkipNull: p.SkipNull, Reindex: p.Reindex}
		if p.Query != nil {
			q, err := query.ParseQuery(p.Query.config())
			if err != nil {
				return nil, fmt.Errorf("mapping hcl: pair %d query: %w", i, err)
			}
			pair.Query = q
		}
		m.Pairs = append(m.Pairs, pair)
	}
	return m, nil
}

func (q *hclQuery) config() map[string]any {
	cfg := make(map[string]any)
	if v := ctyToGo(q.Where); v != nil {
		cfg["where"] = v
	}
	if q.Distinct != "" {
		cfg["distinct"] = q.Distinct
	}
	if v := ctyToGo(q.Like); v != nil {
		cfg["like"] = v
	}
	if len(q.GroupBy) > 0 {
		cfg["group_by"] = q.GroupBy
	}
	if v := ctyToGo(q.Aggregates); v != nil {
		cfg["aggregates"] = v
	}
	if v := ctyToGo(q.Having); v != nil {
		cfg["having"] = v
	}
	if v := ctyToGo(q.OrderBy); v != nil {
		cfg["order_by"] = v
	}
	if q.Offset != 0 {
		cfg["offset"] = q.Offset
	}
	if q.Limit != 0 {
		cfg["limit"] = q.Limit
	}
	return cfg
}

// ctyToGo lowers an HCL value into the plain map/slice/scalar tree the
// query parser consumes. Whole numbers come back as int.
func ctyToGo(v cty.Value) any {
	if v == cty.NilVal || v.IsNull() {
		return nil
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Bool:
		return v.True()
	case t == cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return int(i)
		}
		f, _ := bf.Float64()
		return f
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ctyToGo(ev))
		}
		return out
	case t.IsObjectType() || t.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			kv, ev := it.Element()
			out[kv.AsString()] = ctyToGo(ev)
		}
		return out
	}
	return nil
}
