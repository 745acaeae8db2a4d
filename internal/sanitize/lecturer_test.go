package sanitize

import "testing"

func TestParseLecturer_TitleAndName(t *testing.T) {
	got := ParseLecturer("Prof. Meier")
	if got.Title != "Prof." {
		t.Errorf("Title = %q, want %q", got.Title, "Prof.")
	}
	if got.Name != "Meier" {
		t.Errorf("Name = %q, want %q", got.Name, "Meier")
	}
	if got.Email != "" {
		t.Errorf("Email = %q, want empty", got.Email)
	}
}

func TestParseLecturer_WithEmail(t *testing.T) {
	got := ParseLecturer("Dr. Jane Doe <jane.doe@tu-freiberg.de>")
	if got.Email != "jane.doe@tu-freiberg.de" {
		t.Errorf("Email = %q, want jane.doe@tu-freiberg.de", got.Email)
	}
	if got.Title != "Dr." {
		t.Errorf("Title = %q, want Dr.", got.Title)
	}
	if got.Name != "Jane Doe" {
		t.Errorf("Name = %q, want Jane Doe", got.Name)
	}
}

func TestParseLecturer_Blank(t *testing.T) {
	got := ParseLecturer("   ")
	if got.Name != "N.N." {
		t.Errorf("Name = %q, want N.N.", got.Name)
	}
}

func TestParseLecturer_LongNameHardTruncated(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	got := ParseLecturer(string(long))
	if len(got.Name) != maxNameLength {
		t.Errorf("len(Name) = %d, want %d", len(got.Name), maxNameLength)
	}
	if !got.Truncated {
		t.Error("Truncated = false, want true")
	}
}

func TestParseLecturer_DelimiterTruncation(t *testing.T) {
	segment := make([]byte, 250)
	for i := range segment {
		segment[i] = 'b'
	}
	raw := string(segment) + ";" + "second segment"
	got := ParseLecturer(raw)
	if !got.Truncated {
		t.Error("Truncated = false, want true")
	}
	if got.Name != string(segment[:maxNameLength]) {
		t.Errorf("Name length = %d, want first segment kept and cut to %d", len(got.Name), maxNameLength)
	}
}

func TestParseLecturer_EmailLengthCap(t *testing.T) {
	local := make([]byte, 200)
	for i := range local {
		local[i] = 'c'
	}
	raw := string(local) + "@example.com"
	got := ParseLecturer(raw)
	if len(got.Email) != maxEmailLength {
		t.Errorf("len(Email) = %d, want %d", len(got.Email), maxEmailLength)
	}
}
