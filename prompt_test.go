package daamkoto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xFahim/DaamKoto/vector"
)

func TestBuildContext(t *testing.T) {
	assert := assert.New(t)

	matches := []vector.Match{
		{
			Metadata: map[string]string{
				"name":        "Red Tee",
				"price":       "$10",
				"stock":       "In Stock",
				"description": "URL: https://shop.example.com/red-tee - Badge: In Stock",
				"product_url": "https://shop.example.com/red-tee",
			},
			Score: 0.92,
		},
		{
			Metadata: map[string]string{
				"name": "Blue Tee",
				"url":  "https://cdn.example.com/blue-tee.jpg",
			},
			Score: 0.71,
		},
	}

	context := BuildContext(matches)

	lines := strings.Split(context, "\n")
	if !assert.Len(lines, 2) {
		return
	}

	assert.Equal("Name: Red Tee, Price: $10, Stock: In Stock, "+
		"Description: URL: https://shop.example.com/red-tee - Badge: In Stock, "+
		"URL: https://shop.example.com/red-tee", lines[0])

	// Missing fields fall back; url stands in for a missing product_url.
	assert.Equal("Name: Blue Tee, Price: N/A, Stock: N/A, Description: , "+
		"URL: https://cdn.example.com/blue-tee.jpg", lines[1])

	assert.Empty(BuildContext(nil))
}

func TestSelectPrompt(t *testing.T) {
	assert := assert.New(t)

	context := "Name: Red Tee, Price: $10"

	prompt := SelectPrompt(context, false)
	assert.Contains(prompt, context)
	assert.Contains(prompt, "answer the customer's question")

	prompt = SelectPrompt(context, true)
	assert.Contains(prompt, context)
	assert.Contains(prompt, "sent a photo")

	prompt = SelectPrompt("", false)
	assert.NotContains(prompt, "%s")
	assert.Contains(prompt, "couldn't find any products matching their request")

	prompt = SelectPrompt("", true)
	assert.Contains(prompt, "couldn't find any products matching their photo")
}

func TestBuildPrompt(t *testing.T) {
	assert := assert.New(t)

	prompt := BuildPrompt("system", "red t-shirt")
	assert.Equal("system\n\nUser: red t-shirt", prompt)

	prompt = BuildPrompt("system", "")
	assert.Equal("system\n\nUser: Find this product", prompt, "empty question uses the image fallback")
}
