package normalize

import (
	"reflect"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  user@example.com  ", "user@example.com"},
		{"\tuser@example.com\n", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Aisha Rahman", "Aisha Rahman"},
		{"  Aisha   Rahman  ", "Aisha Rahman"},
		{"\tAisha\nRahman", "Aisha Rahman"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ramadan", "ramadan"},
		{" Islamic  Finance ", "islamic-finance"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Category(tt.input); got != tt.want {
			t.Errorf("Category(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTags(t *testing.T) {
	got := Tags([]string{" Zakat", "zakat", "", "Eid ", "ZAKAT", "charity"})
	want := []string{"zakat", "eid", "charity"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
	if got := Tags(nil); got == nil || len(got) != 0 {
		t.Errorf("Tags(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+880 1711-000000", "+8801711000000"},
		{"(017) 1100 0000", "01711000000"},
		{"01711+000", "01711000"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Phone(tt.input); got != tt.want {
			t.Errorf("Phone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStatus(t *testing.T) {
	if got := Status(" Disabled "); got != "disabled" {
		t.Errorf("Status() = %q", got)
	}
}
