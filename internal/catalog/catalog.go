// Package catalog holds the fixed list of mitigation products a risk can be
// mapped to, together with the designated fallback entry.
package catalog

import (
	"strings"
)

// Product is one mitigation product offered to the business owner.
type Product struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Catalog is an ordered list of products plus the fallback used when no
// product clearly applies.
type Catalog struct {
	Products []Product `json:"products" yaml:"products"`
	Fallback Product   `json:"fallback" yaml:"fallback"`
}

// FallbackName is the "individual consultation" sentinel.
const FallbackName = "個別相談"

var defaultCatalog = Catalog{
	Products: []Product{
		{Name: "商工会の福祉共済, 経営者休業補償制度", Description: "経営者や従業員の病気・ケガによる休業や所得減少を補償する。"},
		{Name: "業務災害保険", Description: "従業員の労働災害（労災）に対する企業の賠償責任を補償する。"},
		{Name: "火災共済（店舗・設備補償）", Description: "火災や水災による建物や設備の損害を補償する。"},
		{Name: "ビジネス総合保険（PL責任補償）", Description: "食中毒などの賠償責任に加え、サイバー攻撃による損害なども幅広く補償する。"},
		{Name: "経営セーフティ共済", Description: "取引先の倒産による売掛金回収不能などの損害に備える。"},
		{Name: "地震保険, 地震特約", Description: "地震による損害を補償する。"},
	},
	Fallback: Product{Name: FallbackName, Description: "上記のいずれにも明確に当てはまらない場合。"},
}

// Default returns a copy of the built-in catalog.
func Default() Catalog {
	products := make([]Product, len(defaultCatalog.Products))
	copy(products, defaultCatalog.Products)
	return Catalog{Products: products, Fallback: defaultCatalog.Fallback}
}

// Entries returns the products followed by the fallback, in prompt order.
func (c Catalog) Entries() []Product {
	out := make([]Product, 0, len(c.Products)+1)
	out = append(out, c.Products...)
	return append(out, c.Fallback)
}

// Names returns the product names followed by the fallback name.
func (c Catalog) Names() []string {
	entries := c.Entries()
	names := make([]string, len(entries))
	for i, p := range entries {
		names[i] = p.Name
	}
	return names
}

// Match resolves a model answer to a catalog name. The answer is compared
// after Normalize; the fallback name itself is a valid match. ok is false when
// the answer names nothing in the catalog.
func (c Catalog) Match(answer string) (name string, ok bool) {
	n := Normalize(answer)
	if n == "" {
		return "", false
	}
	for _, p := range c.Entries() {
		if n == p.Name {
			return p.Name, true
		}
	}
	return "", false
}

// Resolve is Match with the fallback substituted for unrecognised answers.
func (c Catalog) Resolve(answer string) string {
	if name, ok := c.Match(answer); ok {
		return name
	}
	return c.Fallback.Name
}

var wrappers = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"「", "」"},
	{"『", "』"},
	{"【", "】"},
	{"“", "”"},
	{"`", "`"},
}

// Normalize strips the decoration models commonly put around a bare name:
// surrounding whitespace, a leading list marker, quotes and brackets, and a
// trailing full stop.
func Normalize(answer string) string {
	s := strings.TrimSpace(answer)
	s = strings.TrimPrefix(s, "- ")
	s = strings.TrimPrefix(s, "・")
	s = strings.TrimSuffix(s, "。")
	s = strings.TrimSpace(s)

	for changed := true; changed; {
		changed = false
		for _, w := range wrappers {
			if len(s) >= len(w[0])+len(w[1]) && strings.HasPrefix(s, w[0]) && strings.HasSuffix(s, w[1]) {
				s = strings.TrimSpace(s[len(w[0]) : len(s)-len(w[1])])
				changed = true
			}
		}
	}
	return s
}
