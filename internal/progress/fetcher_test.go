package progress

import "testing"

func TestParseFetcherLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantPct int
		wantOK  bool
	}{
		{"plain percentage", "[download]  42.0% of 10MiB at 1MiB/s ETA 00:10", 42, true},
		{"rounds up", "[download]  99.5% of ~120.00MiB at 5.2MiB/s", 100, true},
		{"rounds down", "[download]  13.4% of 3.5MiB", 13, true},
		{"integer percentage", "[download] 100% of 10MiB in 00:12", 100, true},
		{"zero", "[download]   0.0% of 10MiB", 0, true},
		{"destination line", "[download] Destination: temp/abc.webm", 0, false},
		{"merger line", "[Merger] Merging formats into \"out.mp4\"", 0, false},
		{"empty line", "", 0, false},
		{"percent outside download tag", "done 42.0%", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct, ok := ParseFetcherLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseFetcherLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if ok && pct != tt.wantPct {
				t.Errorf("ParseFetcherLine(%q) = %d, want %d", tt.line, pct, tt.wantPct)
			}
		})
	}
}
