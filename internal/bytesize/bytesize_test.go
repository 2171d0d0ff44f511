package bytesize

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    ByteSize
		wantErr bool
	}{
		{"1024", 1024, false},
		{"10Mi", 10 * MiB, false},
		{"100MB", 100 * MB, false},
		{"1Gi", GiB, false},
		{"1.5Ki", ByteSize(1536), false},
		{"512 kb", 512 * KB, false},
		{"", 0, true},
		{"10Xi", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q): expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		size ByteSize
		want string
	}{
		{100, "100B"},
		{10 * MiB, "10.00MiB"},
		{GiB, "1.00GiB"},
	}
	for _, tt := range tests {
		if got := tt.size.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int64(tt.size), got, tt.want)
		}
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	if err := b.UnmarshalText([]byte("100Mi")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if b != 100*MiB {
		t.Errorf("got %d, want %d", b, 100*MiB)
	}
	if err := b.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for invalid input")
	}
}
