package daamkoto

import (
	"fmt"
	"strings"

	"github.com/xFahim/DaamKoto/vector"
)

// The fallback question shown to the generator when a photo arrives with
// no caption.
const defaultImageQuestion = "Find this product"

const (
	promptImageWithContext = "You are a helpful sales assistant for an online store. " +
		"A customer sent a photo of a product and you recognized the following matching product(s) in the catalog:\n\n%s\n\n" +
		"Confirm that you recognize the product(s) in the photo and share their details. " +
		"Include the product URL for every product you mention."

	promptTextWithContext = "You are a helpful sales assistant for an online store. " +
		"Use this product context to answer the customer's question:\n\n%s\n\n" +
		"Suggest the matching products conversationally and include the product URL for every product you mention. " +
		"If the context doesn't actually match what the customer is asking for, politely say so."

	promptImageNoContext = "You are a helpful sales assistant for an online store. " +
		"A customer sent a photo of a product, but no matching products were found in the current catalog. " +
		"Tell the customer plainly that you couldn't find any products matching their photo. " +
		"Do not make up or suggest products that are not in the catalog."

	promptTextNoContext = "You are a helpful sales assistant for an online store. " +
		"No matching products were found in the current catalog for the customer's request. " +
		"Tell the customer plainly that you couldn't find any products matching their request. " +
		"Do not make up or suggest products that are not in the catalog."
)

// BuildContext renders one line per match, in store order.
func BuildContext(matches []vector.Match) string {
	lines := make([]string, 0, len(matches))

	for _, match := range matches {
		md := match.Metadata
		if md == nil {
			md = map[string]string{}
		}

		line := fmt.Sprintf("Name: %s, Price: %s, Stock: %s, Description: %s, URL: %s",
			valueOr(md, "name", "Unknown"),
			valueOr(md, "price", "N/A"),
			valueOr(md, "stock", "N/A"),
			valueOr(md, "description", ""),
			valueOr(md, "product_url", valueOr(md, "url", "")),
		)

		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// SelectPrompt picks the system prompt for the (has-context, is-image)
// combination. Retrieval misses and modality change what is asked of the
// generator, not just what data it sees.
func SelectPrompt(context string, isImage bool) string {
	switch {
	case context != "" && isImage:
		return fmt.Sprintf(promptImageWithContext, context)

	case context != "":
		return fmt.Sprintf(promptTextWithContext, context)

	case isImage:
		return promptImageNoContext

	default:
		return promptTextNoContext
	}
}

// BuildPrompt assembles the full generation input.
func BuildPrompt(systemPrompt, question string) string {
	if question == "" {
		question = defaultImageQuestion
	}

	return systemPrompt + "\n\nUser: " + question
}

func valueOr(md map[string]string, key, def string) string {
	if v, ok := md[key]; ok && v != "" {
		return v
	}

	return def
}
