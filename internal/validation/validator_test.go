package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskforce/internal/apperr"
)

type testLink struct {
	URL string `json:"url" validate:"required,http_url"`
}

type testPayload struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Category  string     `json:"category" validate:"omitempty,project_category"`
	Currency  string     `json:"currency" validate:"omitempty,currency"`
	SDGs      []int      `json:"sdgs" validate:"max=17,dive,sdg"`
	IFRC      []string   `json:"ifrc_challenges" validate:"dive,ifrc"`
	Links     []testLink `json:"links" validate:"dive"`
	Severity  string     `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Internal  string     `json:"-"`
	NoJSONTag int        `validate:"gte=0"`
}

func TestValidator_Valid(t *testing.T) {
	v := New(nil)
	err := v.Struct(testPayload{
		Title:    "Mangroves",
		Category: "biodiversity",
		Currency: "EUR",
		SDGs:     []int{13, 14},
		IFRC:     []string{"climate-environment"},
		Links:    []testLink{{URL: "https://example.org"}},
		Severity: "high",
	})
	assert.NoError(t, err)
}

func TestValidator_FieldPaths(t *testing.T) {
	v := New(nil)
	err := v.Struct(testPayload{
		Category:  "spaceships",
		Currency:  "XYZ",
		SDGs:      []int{7, 18},
		IFRC:      []string{"unknown"},
		Links:     []testLink{{URL: "https://ok.example"}, {URL: "javascript:alert(1)"}},
		Severity:  "apocalyptic",
		NoJSONTag: -1,
	})
	require.Error(t, err)

	fields := apperr.Fields(err)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}

	assert.Equal(t, "is required", got["title"])
	assert.Equal(t, "is not a known category", got["category"])
	assert.Equal(t, "is not a supported currency", got["currency"])
	assert.Equal(t, "must be a sustainable development goal between 1 and 17", got["sdgs[1]"])
	assert.Equal(t, "is not a known IFRC challenge", got["ifrc_challenges[0]"])
	assert.Equal(t, "must be a public http:// or https:// URL", got["links[1].url"])
	assert.Equal(t, "must be one of: low, medium, high, critical", got["severity"])
	assert.Equal(t, "must be greater than or equal to 0", got["NoJSONTag"])
	assert.Len(t, fields, 8)
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "location.lat", fieldPath("ProjectPayload.location.lat"))
	assert.Equal(t, "title", fieldPath("title"))
}
