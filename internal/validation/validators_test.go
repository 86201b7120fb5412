package validation

import (
	"testing"
)

func TestValidateMood(t *testing.T) {
	t.Parallel()

	valid := []string{"happy", "neutral", "stressed", "energized", "tired", "overwhelmed"}
	for _, mood := range valid {
		if err := ValidateMood(mood); err != nil {
			t.Errorf("Expected %q to be valid, got %v", mood, err)
		}
	}

	invalid := []string{"", "HAPPY", "ecstatic", "happy ", "focused"}
	for _, mood := range invalid {
		if err := ValidateMood(mood); err == nil {
			t.Errorf("Expected %q to be invalid", mood)
		}
	}
}

func TestValidateUrgencyLevel(t *testing.T) {
	t.Parallel()

	valid := []string{"low", "medium", "high", "critical"}
	for _, level := range valid {
		if err := ValidateUrgencyLevel(level); err != nil {
			t.Errorf("Expected %q to be valid, got %v", level, err)
		}
	}

	if err := ValidateUrgencyLevel("urgent"); err == nil {
		t.Error("Expected 'urgent' to be invalid")
	}
}

func TestValidateDueDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{"2025-06-02", true},
		{"2025-12-31", true},
		{"2025-02-30", false},
		{"2025-13-01", false},
		{"06/02/2025", false},
		{"2025-6-2", false},
		{"", false},
	}

	for _, tt := range tests {
		err := ValidateDueDate(tt.value)
		if tt.valid && err != nil {
			t.Errorf("Expected %q to be valid, got %v", tt.value, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("Expected %q to be invalid", tt.value)
		}
	}
}

func TestValidateDueTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"12:60", false},
		{"9:30", false},
		{"09:30:00", false},
		{"", false},
	}

	for _, tt := range tests {
		err := ValidateDueTime(tt.value)
		if tt.valid && err != nil {
			t.Errorf("Expected %q to be valid, got %v", tt.value, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("Expected %q to be invalid", tt.value)
		}
	}
}

func TestValidateEnergyLevel(t *testing.T) {
	t.Parallel()

	for level := 1; level <= 5; level++ {
		if err := ValidateEnergyLevel(level); err != nil {
			t.Errorf("Expected level %d to be valid, got %v", level, err)
		}
	}
	for _, level := range []int{0, 6, -1, 100} {
		if err := ValidateEnergyLevel(level); err == nil {
			t.Errorf("Expected level %d to be invalid", level)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  hello  ", want: "hello"},
		{name: "keeps newlines and tabs", input: "a\n\tb", want: "a\n\tb"},
		{name: "strips other control characters", input: "a\x00b\x1bc", want: "abc"},
		{name: "empty stays empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestStructValidation(t *testing.T) {
	t.Parallel()

	type createReq struct {
		Title   string `validate:"required,min=1,max=500"`
		DueDate string `validate:"required,due_date"`
		DueTime string `validate:"required,due_time"`
		Mood    string `validate:"omitempty,mood"`
	}

	t.Run("valid request passes", func(t *testing.T) {
		t.Parallel()

		req := createReq{Title: "stretch", DueDate: "2025-06-02", DueTime: "09:00", Mood: "tired"}
		if err := Validate.Struct(req); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("bad due_time fails on the custom tag", func(t *testing.T) {
		t.Parallel()

		req := createReq{Title: "stretch", DueDate: "2025-06-02", DueTime: "25:00"}
		if err := Validate.Struct(req); err == nil {
			t.Error("Expected validation error")
		}
	})
}
