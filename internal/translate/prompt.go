package translate

import (
	"fmt"
	"strings"

	"github.com/alibyilmaz/unimallaicase/internal/crawler"
)

const (
	mainSystemPrompt = "You are a product information translator. " +
		"Respond ONLY with the requested JSON format, nothing else."

	attributesSystemPrompt = "You are a translator. You must respond with a JSON object " +
		"containing an 'attributes' array. Each object in the array must have 'key' and " +
		"'name' fields for the translated attributes. Example response format: " +
		`{ "attributes": [ { "key": "Material", "name": "Cotton" } ] }`
)

func mainPrompt(p crawler.Product) string {
	return fmt.Sprintf(`Translate and optimize the following product information to English. Respond ONLY with a valid JSON object in exactly this format, nothing else:

{
    "name": "<translated product name>",
    "description": "<translated product description>",
    "brand": "<translated brand>",
    "category": "<translated category>"
}

Product Information:
Name: %s
Description: %s
Brand: %s
Category: %s`, p.Name, p.Description, p.Brand, p.Category)
}

func attributesPrompt(attrs []crawler.ProductAttribute) string {
	var b strings.Builder
	b.WriteString(`Translate the following product attributes to English. Return a JSON object with an "attributes" array of objects, each with "key" and "name" fields. Example format:
{
    "attributes": [
        {"key": "Material", "name": "Cotton"},
        {"key": "Color", "name": "Blue"}
    ]
}

Attributes to translate:
`)
	for i, a := range attrs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", a.Key, a.Name)
	}
	return b.String()
}
