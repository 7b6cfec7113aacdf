package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCoversSeededTools(t *testing.T) {
	registry := NewToolRegistry()
	for _, name := range []string{"price-suggestion", "listing-description", "agent-resume"} {
		_, ok := registry[name]
		assert.True(t, ok, "missing descriptor for %s", name)
	}
}

func TestPriceSuggestionBuildPrompt(t *testing.T) {
	desc := priceSuggestionDescriptor()

	t.Run("valid payload", func(t *testing.T) {
		prompt, err := desc.BuildPrompt(json.RawMessage(
			`{"property_type":"apartment","city":"Lisbon","bedrooms":2,"bathrooms":1,"area_sqm":85.5,"condition":"renovated"}`,
		))
		require.NoError(t, err)
		assert.Contains(t, prompt, "apartment")
		assert.Contains(t, prompt, "Lisbon")
		assert.Contains(t, prompt, "85.5")
		assert.Contains(t, prompt, "suggested_price")
	})

	t.Run("missing required fields", func(t *testing.T) {
		_, err := desc.BuildPrompt(json.RawMessage(`{"property_type":"apartment","area_sqm":85.5}`))
		assert.Error(t, err)
	})

	t.Run("non-positive area", func(t *testing.T) {
		_, err := desc.BuildPrompt(json.RawMessage(`{"property_type":"apartment","city":"Lisbon","area_sqm":0}`))
		assert.Error(t, err)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		_, err := desc.BuildPrompt(json.RawMessage(
			`{"property_type":"apartment","city":"Lisbon","area_sqm":85.5,"surprise":"field"}`,
		))
		assert.Error(t, err)
	})
}

func TestListingDescriptionBuildPrompt(t *testing.T) {
	desc := listingDescriptionDescriptor()

	t.Run("tone defaults to professional", func(t *testing.T) {
		prompt, err := desc.BuildPrompt(json.RawMessage(`{"title":"Sunny loft","city":"Porto"}`))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(prompt, "Write a professional"))
	})

	t.Run("title required", func(t *testing.T) {
		_, err := desc.BuildPrompt(json.RawMessage(`{"city":"Porto"}`))
		assert.Error(t, err)
	})
}

func TestAgentResumeBuildPrompt(t *testing.T) {
	desc := agentResumeDescriptor()

	_, err := desc.BuildPrompt(json.RawMessage(`{"city":"Faro"}`))
	assert.Error(t, err)

	prompt, err := desc.BuildPrompt(json.RawMessage(
		`{"full_name":"Ana Costa","city":"Faro","years_experience":8,"specialties":["coastal homes","relocation"]}`,
	))
	require.NoError(t, err)
	assert.Contains(t, prompt, "Ana Costa")
	assert.Contains(t, prompt, "coastal homes; relocation")
}

func TestStripJSONFence(t *testing.T) {
	plain := `{"suggested_price":420000}`
	assert.Equal(t, plain, stripJSONFence(plain))
	assert.Equal(t, plain, stripJSONFence("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, stripJSONFence("```\n"+plain+"\n```"))
	assert.Equal(t, plain, stripJSONFence("  \n"+plain+"\n  "))
}

func TestPriceSuggestionOutputParsing(t *testing.T) {
	t.Run("strict object parses", func(t *testing.T) {
		var out priceSuggestionOutput
		err := decodeStrict([]byte(
			`{"suggested_price":420000,"min_price":395000,"max_price":455000,"rationale":"Comparable sales nearby."}`,
		), &out)
		require.NoError(t, err)
		assert.Equal(t, int64(420000), out.SuggestedPrice)
	})

	t.Run("unknown field fails the parse", func(t *testing.T) {
		var out priceSuggestionOutput
		err := decodeStrict([]byte(`{"suggested_price":420000,"confidence":0.9}`), &out)
		assert.Error(t, err)
	})

	t.Run("prose fails the parse", func(t *testing.T) {
		var out priceSuggestionOutput
		err := decodeStrict([]byte("I would suggest around 420000."), &out)
		assert.Error(t, err)
	})
}
