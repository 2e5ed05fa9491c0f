package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/linkstashapp/linkstash-server/internal/errors"
)

type saveLinkRequest struct {
	URL   string `json:"url"   validate:"required,http_url"`
	Title string `json:"title" validate:"max=500"`
}

func TestValidate_Valid(t *testing.T) {
	v := New()

	err := v.Validate(saveLinkRequest{URL: "https://example.com/post"})
	assert.NoError(t, err)
}

func TestValidate_MissingRequired(t *testing.T) {
	v := New()

	err := v.Validate(saveLinkRequest{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["url"])
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(saveLinkRequest{URL: "not a url"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "url")
	assert.NotContains(t, details, "URL")
}
