package utils

import "testing"

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestIsASCII(t *testing.T) {
	if !IsASCII("long_hair") {
		t.Error("ascii string reported as non-ascii")
	}
	if IsASCII("ロングヘア") {
		t.Error("japanese string reported as ascii")
	}
	if !IsASCII("") {
		t.Error("empty string is ascii")
	}
}
