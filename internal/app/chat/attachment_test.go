package chat

import "testing"

func TestValidateFileSize(t *testing.T) {
	if customErr := ValidateFileSize(1024); customErr != nil {
		t.Errorf("reasonable size rejected: %v", customErr)
	}

	if customErr := ValidateFileSize(0); customErr == nil {
		t.Error("zero size should be rejected")
	}

	if customErr := ValidateFileSize(MaxAttachmentSize + 1); customErr == nil {
		t.Error("oversized file should be rejected")
	}
}

func TestValidateFileType(t *testing.T) {
	cases := []struct {
		name  string
		mime  string
		valid bool
	}{
		{"photo.jpg", "image/jpeg", true},
		{"clip.mp4", "video/mp4", true},
		{"notes.pdf", "application/pdf", true},
		{"readme.txt", "text/plain", true},
		{"photo.jpg", "image/png", false},
		{"script.exe", "application/octet-stream", false},
		{"noextension", "image/jpeg", false},
	}

	for _, c := range cases {
		customErr := ValidateFileType(c.name, c.mime)
		if c.valid && customErr != nil {
			t.Errorf("ValidateFileType(%q, %q) unexpectedly failed: %v", c.name, c.mime, customErr)
		}
		if !c.valid && customErr == nil {
			t.Errorf("ValidateFileType(%q, %q) should have failed", c.name, c.mime)
		}
	}
}

func TestCategoryForMIME(t *testing.T) {
	cases := []struct {
		mime     string
		category string
		msgType  MessageType
	}{
		{"image/png", "images", TypeImage},
		{"video/webm", "videos", TypeVideo},
		{"application/pdf", "files", TypeFile},
	}

	for _, c := range cases {
		category, msgType := CategoryForMIME(c.mime)
		if category != c.category || msgType != c.msgType {
			t.Errorf("CategoryForMIME(%q) = (%s, %s), want (%s, %s)", c.mime, category, msgType, c.category, c.msgType)
		}
	}
}
