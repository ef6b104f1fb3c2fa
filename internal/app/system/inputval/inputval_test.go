package inputval

import (
	"errors"
	"testing"

	"github.com/dalemusser/noorhub/internal/app/system/apperr"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user123@example.co.uk", true},

		{"", false},
		{"   ", false},
		{"notanemail", false},
		{"@example.com", false},
		{"user@", false},
		{"user example.com", false},
		{"user@@example.com", false},
		{"Name <user@example.com>", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.com", true},
		{"https://example.com/path?query=value", true},
		{"http://localhost:8080", true},
		{"https://www.youtube.com/watch?v=abc", true},

		{"", false},
		{"example.com", false},
		{"ftp://example.com", false},
		{"javascript:alert(1)", false},
		{"https://", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsValidHTTPURL(tt.url); got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsValidObjectID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"ffffffffffffffffffffffff", true},

		{"", false},
		{"507f1f77bcf86cd79943901", false},
		{"507f1f77bcf86cd79943901g", false},
		{"not-an-object-id", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsValidObjectID(tt.id); got != tt.want {
				t.Errorf("IsValidObjectID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestEnumHelpers(t *testing.T) {
	if !IsValidAuthMethod(" Google ") || IsValidAuthMethod("trust") {
		t.Error("IsValidAuthMethod mismatch")
	}
	if !IsValidRole("admin") || !IsValidRole("USER") || IsValidRole("moderator") {
		t.Error("IsValidRole mismatch")
	}
	if !IsValidContentType("quran") || IsValidContentType("page") {
		t.Error("IsValidContentType mismatch")
	}
	if !IsValidCollection("bukhari") || IsValidCollection("muwatta") {
		t.Error("IsValidCollection mismatch")
	}
	if !IsValidNavType("dropdown") || IsValidNavType("footer") {
		t.Error("IsValidNavType mismatch")
	}
}

func TestRequireAll(t *testing.T) {
	if err := RequireAll(Need("title", true), Need("content", true)); err != nil {
		t.Fatalf("RequireAll() = %v, want nil", err)
	}

	err := RequireAll(Need("title", false), Need("content", true), Need("category", false))
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("RequireAll() = %v, want *apperr.Error", err)
	}
	if ae.Message != "Missing required fields: title, category" {
		t.Errorf("Message = %q", ae.Message)
	}
	if ae.Kind != apperr.KindBadRequest {
		t.Errorf("Kind = %q", ae.Kind)
	}
}

func TestValidate(t *testing.T) {
	type videoInput struct {
		Title    string `json:"title" validate:"required,max=10" label:"Title"`
		VideoURL string `json:"videoUrl" validate:"httpurl" label:"Video URL"`
	}

	tests := []struct {
		name      string
		input     videoInput
		wantError bool
	}{
		{"valid", videoInput{Title: "Tafsir", VideoURL: "https://example.com/v"}, false},
		{"optional url empty", videoInput{Title: "Tafsir"}, false},
		{"missing title", videoInput{VideoURL: "https://example.com/v"}, true},
		{"title too long", videoInput{Title: "Tafsir of Al-Baqarah"}, true},
		{"bad url", videoInput{Title: "Tafsir", VideoURL: "ftp://example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)
			if tt.wantError && !result.HasErrors() {
				t.Errorf("Validate() expected errors, got none")
			}
			if !tt.wantError && result.HasErrors() {
				t.Errorf("Validate() expected no errors, got: %s", result.First())
			}
		})
	}
}

func TestValidate_Err(t *testing.T) {
	type input struct {
		ContentType string `json:"contentType" validate:"contenttype" label:"Content type"`
	}

	if err := Validate(input{ContentType: "news"}).Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}

	err := Validate(input{ContentType: "page"}).Err()
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("Err() = %v, want *apperr.Error", err)
	}
	if ae.Kind != apperr.KindBadRequest {
		t.Errorf("Kind = %q", ae.Kind)
	}
	if len(ae.Fields) != 1 || ae.Fields[0] != "contentType" {
		t.Errorf("Fields = %v, want [contentType]", ae.Fields)
	}
	want := "Content type must be one of: news, video, product, quran, hadith."
	if ae.Message != want {
		t.Errorf("Message = %q, want %q", ae.Message, want)
	}
}

func TestValidate_NumericMessages(t *testing.T) {
	type input struct {
		Price float64 `json:"price" validate:"min=0" label:"Price"`
	}
	result := Validate(input{Price: -1})
	if !result.HasErrors() {
		t.Fatal("negative price should fail")
	}
	if result.First() != "Price must be at least 0." {
		t.Errorf("First() = %q", result.First())
	}
}

func TestResult_FirstAndAll(t *testing.T) {
	r := &Result{}
	if r.First() != "" || r.All() != "" || r.HasErrors() {
		t.Error("empty result should report nothing")
	}

	r = &Result{
		Errors: []FieldError{
			{Field: "name", Label: "Name", Message: "Name is required."},
			{Field: "email", Label: "Email", Message: "Email is required."},
		},
	}
	if got := r.First(); got != "Name is required." {
		t.Errorf("First() = %q", got)
	}
	if got := r.All(); got != "Name is required.; Email is required." {
		t.Errorf("All() = %q", got)
	}
}

func TestValidate_JSONTagsAndLabels(t *testing.T) {
	type withLabel struct {
		FullName string `json:"full_name" validate:"required" label:"Full name"`
	}
	if got := Validate(withLabel{}).First(); got != "Full name is required." {
		t.Errorf("message = %q, want label-based message", got)
	}

	type noLabel struct {
		Name string `validate:"required"`
	}
	if got := Validate(noLabel{}).First(); got != "Name is required." {
		t.Errorf("message = %q, want field name message", got)
	}
}

func TestValidate_PointerAndNonStruct(t *testing.T) {
	type input struct {
		Name string `validate:"required" label:"Name"`
	}
	if r := Validate(&input{Name: "x"}); r.HasErrors() {
		t.Errorf("pointer struct should validate, got: %s", r.First())
	}
	if r := Validate("not a struct"); r == nil {
		t.Error("non-struct should return a non-nil result")
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		min     int
		max     int
		wantMsg string
	}{
		{"ok", "Tafsir", 1, 200, ""},
		{"required", "   ", 1, 200, "Title is required."},
		{"too short", "hi", 10, 1000, "Title must be at least 10 characters."},
		{"too long", "abcdef", 1, 5, "Title must be at most 5 characters."},
		{"no max", "abcdef", 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Length("title", "Title", tt.s, tt.min, tt.max)
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("Length() = %v, want nil", err)
				}
				return
			}
			if err == nil || apperr.As(err).Message != tt.wantMsg {
				t.Errorf("Length() = %v, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestURL(t *testing.T) {
	if err := URL("imageUrl", "Image URL", ""); err != nil {
		t.Errorf("empty URL should pass, got %v", err)
	}
	if err := URL("imageUrl", "Image URL", "https://example.com/a.jpg"); err != nil {
		t.Errorf("valid URL should pass, got %v", err)
	}
	if err := URL("imageUrl", "Image URL", "javascript:alert(1)"); err == nil {
		t.Error("javascript URL should fail")
	}
}
