package record

import (
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   uint64
		wantOK bool
	}{
		{"simple", "0x10", 16, true},
		{"upper case digits", "0xFF", 255, true},
		{"zero", "0x0", 0, true},
		{"no prefix", "10", 0, false},
		{"prefix only", "0x", 0, false},
		{"bad digits", "0xZZ", 0, false},
		{"empty", "", 0, false},
		{"negative", "-0x5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAddress(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseAddress(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0x0"},
		{0x1a2b, "0x1a2b"},
		{-5, "-0x5"},
	}

	for _, tt := range tests {
		if got := FormatAddress(tt.input); got != tt.want {
			t.Errorf("FormatAddress(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDedupe(t *testing.T) {
	records := []Record{
		{HexID: "0x10", Size: "5", Content: "hello"},
		{HexID: "0x10", Size: SizeUnknown, Content: "hello", Type: TypeStringTable},
		{HexID: "0x10", Size: "5", Content: "world"},
		{HexID: "0x20", Size: "5", Content: "hello"},
	}

	got := Dedupe(records)
	if len(got) != 3 {
		t.Fatalf("Dedupe() returned %d records, want 3", len(got))
	}
	if got[0].Size != "5" || got[0].Type != "" {
		t.Errorf("Dedupe() kept %+v, want first-seen copy", got[0])
	}
	if got[1].Content != "world" || got[2].HexID != "0x20" {
		t.Errorf("Dedupe() changed order: %+v", got)
	}
}

func TestSort(t *testing.T) {
	records := []Record{
		{HexID: "0x10", Content: "a"},
		{HexID: "0x2", Content: "b"},
		{HexID: "0xff", Content: "c"},
	}

	Sort(records)

	want := []string{"0x2", "0x10", "0xff"}
	for i, w := range want {
		if records[i].HexID != w {
			t.Errorf("records[%d].HexID = %q, want %q", i, records[i].HexID, w)
		}
	}
}

func TestSortMalformedAsZero(t *testing.T) {
	records := []Record{
		{HexID: "0x5", Content: "five"},
		{HexID: "0xZZ", Content: "bad"},
		{HexID: "0x0", Content: "zero"},
	}

	Sort(records)

	want := []string{"bad", "zero", "five"}
	for i, w := range want {
		if records[i].Content != w {
			t.Errorf("records[%d].Content = %q, want %q", i, records[i].Content, w)
		}
	}
}

func TestSortWideAddresses(t *testing.T) {
	records := []Record{
		{HexID: "0x1ffffffffffffffff", Content: "wide"},
		{HexID: "0x10", Content: "small"},
		{HexID: "0xZZ", Content: "bad"},
		{HexID: "0xffffffffffffffff", Content: "max"},
	}

	Sort(records)

	want := []string{"bad", "small", "max", "wide"}
	for i, w := range want {
		if records[i].Content != w {
			t.Errorf("records[%d].Content = %q, want %q", i, records[i].Content, w)
		}
	}
}

func TestWellFormedAddress(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"0x10", true},
		{"0x1ffffffffffffffff", true},
		{"0x", false},
		{"0xZZ", false},
		{"0x-5", false},
		{"0x+5", false},
		{"10", false},
	}
	for _, tt := range tests {
		if got := WellFormedAddress(tt.input); got != tt.want {
			t.Errorf("WellFormedAddress(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	records := []Record{
		{HexID: "0x30", Size: "1", Content: "x"},
		{HexID: "0x10", Size: "1", Content: "y"},
		{HexID: "0x30", Size: "2", Content: "x"},
	}

	first := Normalize(records)
	second := Normalize(first)

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("Normalize() lengths = %d, %d, want 2", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Normalize() not idempotent at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if records[0].HexID != "0x30" {
		t.Error("Normalize() modified its input")
	}
}
