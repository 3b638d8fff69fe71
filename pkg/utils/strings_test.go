package utils

import (
	"testing"
)

func TestRemoveAccents(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"hello", "hello"},
		{"cobrança", "cobranca"},
		{"negociação", "negociacao"},
		{"café", "cafe"},
		{"José", "Jose"},
		{"São Paulo", "Sao Paulo"},
		{"naïve", "naive"},
		{"piñata", "pinata"},
	}

	for _, test := range tests {
		result := RemoveAccents(test.input)
		if result != test.expected {
			t.Errorf("RemoveAccents(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"pet", "Pet"},
		{"petId", "PetId"},
		{"listPets", "ListPets"},
		{"XMLHttpRequest", "XMLHttpRequest"},
		{"PetDTO", "PetDTO"},
		{"pet-store", "PetStore"},
		{"pet_store", "PetStore"},
		{"pet store", "PetStore"},
		{"HELLO_WORLD", "HelloWorld"},
		{"v2", "V2"},
		{"cobrança", "Cobranca"},
		{"Error.Details", "ErrorDetails"},
		{"питомцы", "Питомцы"},
		{"список питомцев", "СписокПитомцев"},
		{"ネコ 一覧", "ネコ一覧"},
		{"ПИТОМЦЫ_ВСЕ", "ПитомцыВсе"},
	}

	for _, test := range tests {
		result := ToPascalCase(test.input)
		if result != test.expected {
			t.Errorf("ToPascalCase(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestToCamelCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"pet", "pet"},
		{"Pet", "pet"},
		{"pet_id", "petId"},
		{"petId", "petId"},
		{"get /pets/{petId}", "getPetsPetId"},
		{"XMLHttpRequest", "xmlHttpRequest"},
		{"HELLO_WORLD", "helloWorld"},
		{"X-Request-Id", "xRequestId"},
		{"Negociação", "negociacao"},
	}

	for _, test := range tests {
		result := ToCamelCase(test.input)
		if result != test.expected {
			t.Errorf("ToCamelCase(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestToSnakeAndKebabCase(t *testing.T) {
	tests := []struct {
		input string
		snake string
		kebab string
	}{
		{"", "", ""},
		{"petStore", "pet_store", "pet-store"},
		{"XMLHttpRequest", "xml_http_request", "xml-http-request"},
		{"HELLO_WORLD", "hello_world", "hello-world"},
		{"pet store", "pet_store", "pet-store"},
	}

	for _, test := range tests {
		if result := ToSnakeCase(test.input); result != test.snake {
			t.Errorf("ToSnakeCase(%q) = %q, expected %q", test.input, result, test.snake)
		}
		if result := ToKebabCase(test.input); result != test.kebab {
			t.Errorf("ToKebabCase(%q) = %q, expected %q", test.input, result, test.kebab)
		}
	}
}

func TestSplitCamelCase(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"getPetById", []string{"get", "Pet", "By", "Id"}},
		{"XMLHttp", []string{"XML", "Http"}},
		{"pet2Owner", []string{"pet2", "Owner"}},
	}

	for _, test := range tests {
		result := SplitCamelCase(test.input)
		if len(result) != len(test.expected) {
			t.Fatalf("SplitCamelCase(%q) = %v, expected %v", test.input, result, test.expected)
		}
		for i := range result {
			if result[i] != test.expected[i] {
				t.Errorf("SplitCamelCase(%q)[%d] = %q, expected %q", test.input, i, result[i], test.expected[i])
			}
		}
	}
}

func TestToFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"pets", "pets"},
		{"Pet Store", "pet-store"},
		{"", "default"},
	}

	for _, test := range tests {
		if result := ToFileName(test.input); result != test.expected {
			t.Errorf("ToFileName(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}

	if result := ToFileName("питомцы"); result == "" || result == "default" {
		t.Errorf("ToFileName(%q) = %q, expected a name built from the letters", "питомцы", result)
	}
}
