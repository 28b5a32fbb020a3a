package validator

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "no placeholders",
			text: "Confirm the order",
			want: nil,
		},
		{
			name: "python named",
			text: "Pay %(amount)s now",
			want: []string{"%(amount)s"},
		},
		{
			name: "printf verbs",
			text: "%s of %d items",
			want: []string{"%s", "%d"},
		},
		{
			name: "brace styles",
			text: "Hello {name}, see ${link} and {{count}}",
			want: []string{"{name}", "${link}", "{{count}}"},
		},
		{
			name: "repeated token",
			text: "%s and %s",
			want: []string{"%s", "%s"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		translated string
		want       bool
	}{
		{
			name:       "plain text",
			source:     "Invoice",
			translated: "Facture",
			want:       true,
		},
		{
			name:       "placeholder preserved",
			source:     "Pay %(amount)s now",
			translated: "Payez %(amount)s maintenant",
			want:       true,
		},
		{
			name:       "placeholder lost",
			source:     "Pay %(amount)s now",
			translated: "Payez maintenant",
			want:       false,
		},
		{
			name:       "placeholder renamed",
			source:     "Pay %(amount)s now",
			translated: "Payez %(montant)s maintenant",
			want:       false,
		},
		{
			name:       "order may differ",
			source:     "%(qty)s of %(total)s",
			translated: "%(total)s dont %(qty)s",
			want:       true,
		},
		{
			name:       "multiplicity must match",
			source:     "%s and %s",
			translated: "%s",
			want:       false,
		},
		{
			name:       "extra placeholder invalid",
			source:     "Total",
			translated: "Total %s",
			want:       false,
		},
		{
			name:       "empty translation of non-empty source",
			source:     "Invoice",
			translated: "  ",
			want:       false,
		},
		{
			name:       "brace and template tokens",
			source:     "Open {name} via ${url} ({{n}})",
			translated: "({{n}}) Ouvrir {name} via ${url}",
			want:       true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.source, tt.translated); got != tt.want {
				t.Errorf("Validate(%q, %q) = %v, want %v", tt.source, tt.translated, got, tt.want)
			}
		})
	}
}

func TestMissing(t *testing.T) {
	missing := Missing("Pay %(amount)s of %s", "Payez %s")
	if !reflect.DeepEqual(missing, []string{"%(amount)s"}) {
		t.Errorf("Missing = %v", missing)
	}

	if got := Missing("%s %s", "%s"); !reflect.DeepEqual(got, []string{"%s"}) {
		t.Errorf("Missing with multiplicity = %v", got)
	}
}
