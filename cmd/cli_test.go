package cmd

import "testing"

func TestConfigPathFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, ""},
		{"unrelated flags", []string{"-v", "--monitor", "devices"}, ""},
		{"separate value", []string{"--config", "session.yaml"}, "session.yaml"},
		{"equals form", []string{"--config=session.yaml"}, "session.yaml"},
		{"value among other flags", []string{"-v", "--config", "a.yaml", "--monitor"}, "a.yaml"},
		{"dangling flag", []string{"-v", "--config"}, ""},
		{"first occurrence wins", []string{"--config", "a.yaml", "--config", "b.yaml"}, "a.yaml"},
		{"empty equals form", []string{"--config="}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := configPathFromArgs(tt.args); got != tt.want {
				t.Errorf("configPathFromArgs(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
