package ftpconn

import "testing"

func TestParsePASV(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		resp    string
		want    string
		wantErr bool
	}{
		{"standard", "227 Entering Passive Mode (192,168,1,1,195,149)", "192.168.1.1:50069", false},
		{"trailing dot", "227 Entering Passive Mode (127,0,0,1,4,1).", "127.0.0.1:1025", false},
		{"octet out of range", "227 Entering Passive Mode (300,168,1,1,195,149)", "", true},
		{"port out of range", "227 Entering Passive Mode (10,0,0,1,256,1)", "", true},
		{"missing parens", "227 Entering Passive Mode 10,0,0,1,4,1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePASV(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePASV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parsePASV() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseEPSV(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		resp    string
		want    string
		wantErr bool
	}{
		{"standard", "229 Entering Extended Passive Mode (|||6446|)", "6446", false},
		{"zero port", "229 Entering Extended Passive Mode (|||0|)", "", true},
		{"too large", "229 Entering Extended Passive Mode (|||70000|)", "", true},
		{"wrong delimiters", "229 Entering Extended Passive Mode (!!!6446!)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEPSV(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEPSV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseEPSV() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveDataAddr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		pasvAddr    string
		controlHost string
		wantAddr    string
	}{
		{"normal address", "192.168.1.5:12345", "10.0.0.1", "192.168.1.5:12345"},
		{"zero address", "0.0.0.0:12345", "10.0.0.1", "10.0.0.1:12345"},
		{"invalid address", "invalid", "10.0.0.1", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveDataAddr(tt.pasvAddr, tt.controlHost); got != tt.wantAddr {
				t.Errorf("resolveDataAddr() = %v, want %v", got, tt.wantAddr)
			}
		})
	}
}
