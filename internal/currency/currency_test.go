package currency

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   Currency
		wantOK bool
	}{
		{"KES", KES, true},
		{"usd", USD, true},
		{" eur ", EUR, true},
		{"GBP", GBP, true},
		{"JPY", "JPY", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Parse(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		hint string
		want Currency
	}{
		{"kenya", "en-KE", KES},
		{"kenya swahili underscore", "sw_KE", KES},
		{"united states", "en-US", USD},
		{"britain", "en-GB", GBP},
		{"germany", "de-DE", EUR},
		{"france with quality", "fr-FR,fr;q=0.9,en;q=0.8", EUR},
		{"first region wins", "en-GB,en-US;q=0.9", GBP},
		{"language only falls back", "sw", DefaultCurrency},
		{"unknown region falls back", "ja-JP", DefaultCurrency},
		{"empty falls back", "", DefaultCurrency},
		{"region after script subtag", "zh-Hans-DE", EUR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.hint); got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.hint, got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	info, ok := Lookup(KES)
	if !ok {
		t.Fatal("Lookup(KES) not found")
	}
	if info.Symbol != "KSh" || info.Decimals != 0 {
		t.Errorf("unexpected KES info: %+v", info)
	}

	if _, ok := Lookup("XAU"); ok {
		t.Error("Lookup(XAU) should not be found")
	}
}

func TestSupportedAllHaveInfo(t *testing.T) {
	for _, c := range Supported() {
		if _, ok := Lookup(c); !ok {
			t.Errorf("supported currency %v has no info", c)
		}
	}
}
