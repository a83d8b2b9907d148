package store

import "testing"

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in       string
		fallback string
		want     string
	}{
		{"holiday.png", "image", "holiday"},
		{"../../etc/passwd", "image", "passwd"},
		{"my photo (1).jpeg", "image", "my_photo__1"},
		{"", "image", "image"},
		{"...", "doc", "doc"},
		{"report_v2", "doc", "report_v2"},
	}

	for _, tc := range cases {
		if got := sanitizeName(tc.in, tc.fallback); got != tc.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFilenamePatterns(t *testing.T) {
	img := imageFilename(7, 1700000000, "abcdef01", "shot")
	if img != "img_007_1700000000_abcdef01_shot.png" {
		t.Errorf("imageFilename = %q", img)
	}

	doc := documentFilename(7, 1700000000, "deadbeef", "shot")
	if doc != "image_7_1700000000_deadbeef_shot.pdf" {
		t.Errorf("documentFilename = %q", doc)
	}
}
