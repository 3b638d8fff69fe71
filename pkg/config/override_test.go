package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const overrideYAML = `
useDates: true
contentType:
  include: [application/json]
mock:
  required: true
  arrayMax: 5
  properties:
    id: faker.string.uuid()
mutator:
  path: /m/global.ts
  name: globalInstance
tags:
  pets:
    useDates: false
    contentType:
      include: [multipart/form-data]
    mock:
      properties:
        name: faker.person.firstName()
  admin:
    header: false
operations:
  listPets:
    mock:
      required: false
      arrayMax: 0
    mutator:
      path: /m/list.ts
      name: listInstance
`

func parseOverride(t *testing.T) *Override {
	t.Helper()
	var o Override
	require.NoError(t, yaml.Unmarshal([]byte(overrideYAML), &o))
	return &o
}

func TestForOperationPrecedence(t *testing.T) {
	o := parseOverride(t)

	merged, err := o.ForOperation("listPets", []string{"pets", "admin"})
	require.NoError(t, err)

	assert.False(t, merged.Dates(), "tag useDates=false must replace the global true")
	assert.False(t, merged.WithHeader())
	assert.False(t, BoolOr(merged.Mock.Required, true), "operation required=false must win")
	assert.Equal(t, 0, IntOr(merged.Mock.ArrayMax, 10))
	assert.Equal(t, "listInstance", merged.Mutator.Name)

	if diff := cmp.Diff([]string{"application/json", "multipart/form-data"}, merged.ContentType.Include); diff != "" {
		t.Errorf("content type include mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{
		"id":   "faker.string.uuid()",
		"name": "faker.person.firstName()",
	}, merged.Mock.Properties); diff != "" {
		t.Errorf("mock properties mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, merged.Operations)
	assert.Nil(t, merged.Tags)
}

func TestForOperationLeavesSourceUntouched(t *testing.T) {
	o := parseOverride(t)

	_, err := o.ForOperation("listPets", []string{"pets"})
	require.NoError(t, err)

	assert.True(t, o.Dates())
	assert.Equal(t, []string{"application/json"}, o.ContentType.Include)
	assert.Equal(t, "globalInstance", o.Mutator.Name)
	assert.Equal(t, 5, *o.Mock.ArrayMax)
	assert.Len(t, o.Mock.Properties, 1)
}

func TestForOperationWithoutLayers(t *testing.T) {
	o := parseOverride(t)

	merged, err := o.ForOperation("createPet", nil)
	require.NoError(t, err)
	assert.True(t, merged.Dates())
	assert.Equal(t, "globalInstance", merged.Mutator.Name)
	assert.Equal(t, 5, IntOr(merged.Mock.ArrayMax, 10))
}

func TestSuffix(t *testing.T) {
	empty := ""
	o := &Override{}
	assert.Equal(t, "", o.Suffix("schemas"))
	assert.Equal(t, "Response", o.Suffix("responses"))
	assert.Equal(t, "Parameter", o.Suffix("parameters"))
	assert.Equal(t, "Body", o.Suffix("requestBodies"))

	o.Components.Responses.Suffix = &empty
	assert.Equal(t, "", o.Suffix("responses"))
}

func TestAcceptsContentType(t *testing.T) {
	tests := []struct {
		include   []string
		exclude   []string
		mediaType string
		expected  bool
	}{
		{nil, nil, "application/json", true},
		{[]string{"application/json"}, nil, "application/xml", false},
		{[]string{"application/.*json"}, nil, "application/problem+json", true},
		{nil, []string{"application/xml"}, "application/xml", false},
	}

	for _, test := range tests {
		o := &Override{ContentType: ContentFilter{Include: test.include, Exclude: test.exclude}}
		if result := o.AcceptsContentType(test.mediaType); result != test.expected {
			t.Errorf("AcceptsContentType(%q) with %v/%v = %v, expected %v", test.mediaType, test.include, test.exclude, result, test.expected)
		}
	}
}
