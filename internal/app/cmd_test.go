package app

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		args []string
		want Command
	}{
		{nil, CommandServe},
		{[]string{"serve"}, CommandServe},
		{[]string{"worker"}, CommandWorker},
		{[]string{"migrate", "down"}, CommandMigrate},
		{[]string{"healthcheck"}, CommandHealthcheck},
		{[]string{"unknown"}, CommandServe},
		{[]string{"worker", "--flag", "value"}, CommandWorker},
	}

	for _, tt := range tests {
		if got := ParseCommand(tt.args); got != tt.want {
			t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestParseMigrateArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    MigrateArgs
		wantErr bool
	}{
		{"default is up", nil, MigrateArgs{Action: MigrateUp}, false},
		{"up", []string{"up"}, MigrateArgs{Action: MigrateUp}, false},
		{"version", []string{"version"}, MigrateArgs{Action: MigrateVersion}, false},
		{"down defaults to one step", []string{"down"}, MigrateArgs{Action: MigrateDown, Steps: 1}, false},
		{"down with steps", []string{"down", "3"}, MigrateArgs{Action: MigrateDown, Steps: 3}, false},
		{"down with zero steps", []string{"down", "0"}, MigrateArgs{}, true},
		{"down with garbage", []string{"down", "all"}, MigrateArgs{}, true},
		{"unknown action", []string{"drop"}, MigrateArgs{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMigrateArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
