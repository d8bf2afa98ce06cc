package validation

import "testing"

type sample struct {
	Username string  `json:"username" validate:"required,min=3,max=80,alphanum"`
	Email    string  `json:"email" validate:"required,email"`
	Nick     *string `json:"nick,omitempty" validate:"omitempty,min=2"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()
	short := "x"

	tests := []struct {
		name   string
		input  sample
		fields map[string]string
	}{
		{
			name:  "valid",
			input: sample{Username: "alice", Email: "a@x.com"},
		},
		{
			name:   "missing fields",
			input:  sample{},
			fields: map[string]string{"username": "username is required", "email": "email is required"},
		},
		{
			name:   "bad username and email",
			input:  sample{Username: "al!ce", Email: "nope"},
			fields: map[string]string{"username": "username may only contain letters and digits", "email": "email is not a valid address"},
		},
		{
			name:   "optional pointer",
			input:  sample{Username: "alice", Email: "a@x.com", Nick: &short},
			fields: map[string]string{"nick": "nick must be at least 2 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Struct(tt.input)
			if len(got) != len(tt.fields) {
				t.Fatalf("Struct() = %v, want %v", got, tt.fields)
			}
			for field, msg := range tt.fields {
				if got[field] != msg {
					t.Errorf("field %s: got %q, want %q", field, got[field], msg)
				}
			}
		})
	}
}
