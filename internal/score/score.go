// Package score computes the deterministic 0-100 quality score of a
// transformed product.
package score

import (
	"strings"
	"unicode/utf8"

	"github.com/alibyilmaz/unimallaicase/internal/crawler"
)

const (
	maxNameScore      = 25
	maxDescScore      = 20
	maxAttributeScore = 20
	pointsPerAttr     = 4
	nameCharsPerPoint = 4
	descCharsPerPoint = 25

	minImages     = 3
	minAttributes = 3
)

// Input is everything the score depends on.
type Input struct {
	Name           string
	Description    string
	Brand          string
	Category       string
	ImageCount     int
	AttributeCount int
}

// Breakdown exposes the component scores for logging.
type Breakdown struct {
	Name       int
	Desc       int
	Image      int
	Attribute  int
	Subtotal   int
	Penalties  []string
	Total      int
	ImageCount int
	AttrCount  int
}

type penalty struct {
	name    string
	num     int
	den     int
	applies func(Input) bool
}

// Penalties compound in this order.
var penalties = []penalty{
	{name: "brand", num: 9, den: 10, applies: func(in Input) bool { return blank(in.Brand) }},
	{name: "category", num: 9, den: 10, applies: func(in Input) bool { return blank(in.Category) }},
	{name: "images", num: 8, den: 10, applies: func(in Input) bool { return in.ImageCount < minImages }},
	{name: "attributes", num: 9, den: 10, applies: func(in Input) bool { return in.AttributeCount < minAttributes }},
}

// FromProduct builds an Input from a product's text and collections.
func FromProduct(p crawler.Product) Input {
	return Input{
		Name:           p.Name,
		Description:    p.Description,
		Brand:          p.Brand,
		Category:       p.Category,
		ImageCount:     len(p.Images),
		AttributeCount: len(p.Attributes),
	}
}

// Compute returns the score and its breakdown. Negative counts are treated
// as zero.
func Compute(in Input) (int, Breakdown) {
	in.ImageCount = max(in.ImageCount, 0)
	in.AttributeCount = max(in.AttributeCount, 0)

	b := Breakdown{
		Name:       lengthScore(in.Name, nameCharsPerPoint, maxNameScore),
		Desc:       lengthScore(in.Description, descCharsPerPoint, maxDescScore),
		Image:      imageScore(in.ImageCount),
		Attribute:  min(maxAttributeScore, in.AttributeCount*pointsPerAttr),
		ImageCount: in.ImageCount,
		AttrCount:  in.AttributeCount,
	}
	b.Subtotal = b.Name + b.Desc + b.Image + b.Attribute

	// Each penalty truncates before the next one applies.
	total := b.Subtotal
	for _, p := range penalties {
		if p.applies(in) {
			total = total * p.num / p.den
			b.Penalties = append(b.Penalties, p.name)
		}
	}
	b.Total = clamp(total, 0, 100)
	return b.Total, b
}

func lengthScore(s string, charsPerPoint, limit int) int {
	if blank(s) {
		return 0
	}
	return min(limit, utf8.RuneCountInString(s)/charsPerPoint)
}

func imageScore(count int) int {
	switch {
	case count <= 0:
		return 0
	case count == 1:
		return 10
	case count == 2:
		return 20
	case count == 3:
		return 25
	case count == 4:
		return 30
	default:
		return 35
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
