package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigValidator_Required(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	cv.Required("Name", "")

	if !cv.HasErrors() {
		t.Error("Expected error for empty required field")
	}

	cv2 := NewConfigValidator("TestConfig")
	cv2.Required("Name", "value")

	if cv2.HasErrors() {
		t.Error("Expected no error for non-empty required field")
	}
}

func TestConfigValidator_MinInt(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	cv.MinInt("Workers", 0, 1)

	if !cv.HasErrors() {
		t.Error("Expected error for value below minimum")
	}

	cv2 := NewConfigValidator("TestConfig")
	cv2.MinInt("Workers", 5, 1)

	if cv2.HasErrors() {
		t.Error("Expected no error for value at or above minimum")
	}
}

func TestConfigValidator_RangeInt(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		min       int
		max       int
		expectErr bool
	}{
		{"within range", 50, 1, 100, false},
		{"at minimum", 1, 1, 100, false},
		{"at maximum", 100, 1, 100, false},
		{"below minimum", 0, 1, 100, true},
		{"above maximum", 101, 1, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("TestConfig")
			cv.RangeInt("Value", tt.value, tt.min, tt.max)

			if cv.HasErrors() != tt.expectErr {
				t.Errorf("RangeInt(%d, %d, %d) error = %v, want %v", tt.value, tt.min, tt.max, cv.HasErrors(), tt.expectErr)
			}
		})
	}
}

func TestConfigValidator_OneOf(t *testing.T) {
	allowed := []string{"memory", "file", "postgres"}

	cv := NewConfigValidator("Store")
	cv.OneOf("Backend", "redis", allowed)
	if !cv.HasErrors() {
		t.Fatal("Expected error for value outside allowed set")
	}
	if got := cv.Errors()[0].Error(); !strings.HasPrefix(got, "Store.Backend: ") {
		t.Errorf("Expected field-addressed error, got %q", got)
	}

	cv2 := NewConfigValidator("Store")
	cv2.OneOf("Backend", "file", allowed)
	if cv2.HasErrors() {
		t.Error("Expected no error for allowed value")
	}
}

func TestConfigValidator_Each(t *testing.T) {
	cv := NewConfigValidator("Config")
	cv.Each("Namespaces", []string{"ok", "", "fine", ""}, func(s string) error {
		if s == "" {
			return errors.New("empty")
		}
		return nil
	})

	errs := cv.Errors()
	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(errs))
	}
	if errs[0].Error() != "Config.Namespaces[1]: empty" {
		t.Errorf("Unexpected first error %q", errs[0].Error())
	}
	if errs[1].Error() != "Config.Namespaces[3]: empty" {
		t.Errorf("Unexpected second error %q", errs[1].Error())
	}
}

func TestConfigValidator_Custom(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	cv.Custom("Field", func() error {
		return errors.New("custom error")
	})

	if !cv.HasErrors() {
		t.Error("Expected error from custom validation")
	}

	cv2 := NewConfigValidator("TestConfig")
	cv2.Custom("Field", func() error {
		return nil
	})

	if cv2.HasErrors() {
		t.Error("Expected no error from passing custom validation")
	}
}

func TestConfigValidator_When(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	cv.When(false, func(v *ConfigValidator) {
		v.Required("Path", "")
	})
	if cv.HasErrors() {
		t.Error("Expected skipped validations to record nothing")
	}

	cv.When(true, func(v *ConfigValidator) {
		v.Required("Path", "")
	})
	if !cv.HasErrors() {
		t.Error("Expected applied validations to record an error")
	}
}

func TestConfigValidator_ValidateCollectsAll(t *testing.T) {
	err := NewConfigValidator("Config").
		Required("Name", "").
		MinInt("Workers", 0, 1).
		OneOf("Mode", "x", []string{"a", "b"}).
		Validate()

	if err == nil {
		t.Fatal("Expected combined error")
	}
	for _, field := range []string{"Config.Name", "Config.Workers", "Config.Mode"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Expected %s in %q", field, err.Error())
		}
	}

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Error("Expected a FieldError in the chain")
	}

	if err := NewConfigValidator("Config").Required("Name", "x").Validate(); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr("", "default"); got != "default" {
		t.Errorf("DefaultOr(\"\") = %q", got)
	}
	if got := DefaultOr("set", "default"); got != "set" {
		t.Errorf("DefaultOr(\"set\") = %q", got)
	}
	if got := DefaultOr(0, 100); got != 100 {
		t.Errorf("DefaultOr(0) = %d", got)
	}
}
