package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantArgs []string
		wantNil  bool
	}{
		{"/replicate", "replicate", nil, false},
		{"replicate", "replicate", nil, false},
		{"/replicate --mutate --spread", "replicate", []string{"--mutate", "--spread"}, false},
		{"  /cleanup  ", "cleanup", nil, false},
		{"/arm", "arm", nil, false},
		{"/disarm", "disarm", nil, false},
		{"/init", "init", nil, false},
		{"/status", "status", nil, false},
		{"/quit", "quit", nil, false},
		{"/selfdestruct", "", nil, true},
		{"not a command", "", nil, true},
		{"", "", nil, true},
		{"/", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd := ParseCommand(tt.input)
			if tt.wantNil {
				if cmd != nil {
					t.Errorf("expected nil, got %+v", cmd)
				}
				return
			}
			if cmd == nil {
				t.Fatal("expected command, got nil")
			}
			if cmd.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", cmd.Name, tt.wantName)
			}
			if len(cmd.Args) != len(tt.wantArgs) {
				t.Fatalf("Args = %v, want %v", cmd.Args, tt.wantArgs)
			}
			for i := range cmd.Args {
				if cmd.Args[i] != tt.wantArgs[i] {
					t.Errorf("Args[%d] = %q, want %q", i, cmd.Args[i], tt.wantArgs[i])
				}
			}
		})
	}
}
