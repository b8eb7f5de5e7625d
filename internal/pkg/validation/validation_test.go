package validation

import (
	"encoding/json"
	"strings"
	"testing"

	xerrors "panel-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt_Unmarshal(t *testing.T) {
	var body struct {
		A Int `json:"a"`
		B Int `json:"b"`
		C Int `json:"c"`
		D Int `json:"d"`
		E Int `json:"e"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":10,"b":" 20 ","c":"abc","d":null,"e":10.0}`), &body))

	v, err := body.A.Value()
	assert.NoError(t, err)
	assert.Equal(t, int64(10), v)

	v, err = body.B.Value()
	assert.NoError(t, err)
	assert.Equal(t, int64(20), v)

	_, err = body.C.Value()
	assert.Error(t, err)

	assert.False(t, body.D.Present)

	v, err = body.E.Value()
	assert.NoError(t, err)
	assert.Equal(t, int64(10), v)

	_, err = Int{Raw: "10.5", Present: true}.Value()
	assert.Error(t, err)
}

func TestRules_CollectEveryField(t *testing.T) {
	errs := xerrors.ValidationErrors{}

	assert.False(t, RequiredString(errs, "name", "   ", 255))
	assert.False(t, RequiredString(errs, "privilege", strings.Repeat("é", 256), 255))
	assert.True(t, RequiredString(errs, "note", strings.Repeat("é", 255), 255))

	_, ok := IntAtLeast(errs, "size", Int{}, 1)
	assert.False(t, ok)
	_, ok = IntAtLeast(errs, "price", Int{Raw: "x", Present: true}, 0)
	assert.False(t, ok)
	_, ok = IntAtLeast(errs, "count", NewInt(0), 1)
	assert.False(t, ok)
	n, ok := IntAtLeast(errs, "total", NewInt(5), 1)
	assert.True(t, ok)
	assert.Equal(t, int64(5), n)

	assert.Equal(t, map[string][]string{
		"name":      {"The name field is required."},
		"privilege": {"The privilege may not be greater than 255 characters."},
		"size":      {"The size field is required."},
		"price":     {"The price must be an integer."},
		"count":     {"The count must be at least 1."},
	}, map[string][]string(errs))
	assert.Error(t, errs.Err())
}

func TestRequiredString_RejectsControlCharacters(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"plain", "example.com", true},
		{"unicode", "bücher.de", true},
		{"nul byte", "shop\x00.com", false},
		{"newline", "shop\n.com", false},
		{"invalid utf8", "shop\xff.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := xerrors.ValidationErrors{}
			assert.Equal(t, tt.ok, RequiredString(errs, "name", tt.value, 255))
			if !tt.ok {
				assert.Equal(t, []string{"The name contains invalid characters."}, errs["name"])
			}
		})
	}
}

func TestEmailOneOfPassword(t *testing.T) {
	errs := xerrors.ValidationErrors{}

	assert.True(t, Email(errs, "email", "admin@admin.com", 255))
	assert.False(t, Email(errs, "contact", "admin.admin.com", 255))
	assert.True(t, OneOf(errs, "status", "active", "active", "inactive"))
	assert.False(t, OneOf(errs, "state", "banned", "active", "inactive"))
	assert.True(t, Password(errs, "password", "long-enough", "long-enough", 8))
	assert.False(t, Password(errs, "secret", "long-enough", "other", 8))

	assert.Equal(t, map[string][]string{
		"contact": {"The contact must be a valid email address."},
		"state":   {"The selected state is invalid."},
		"secret":  {"The secret confirmation does not match."},
	}, map[string][]string(errs))
}
