package vdf

import (
	"bytes"
	"testing"
)

func TestSerialize_RoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		sampleManifest,
		`"libraryfolders"
{
	"0"
	{
		"path"		"C:\\Games"
		"apps"
		{
			"3564740"		"75896512354"
		}
	}
	"1"
	{
		"path"		"D:\\Games"
		"apps"
		{
		}
	}
}
`,
		`"k" "v with spaces" "quote" "say \"hi\""`,
	}

	for _, input := range inputs {
		first, err := ParseString(input)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		emitted := Serialize(first)
		second, err := Parse(emitted)
		if err != nil {
			t.Fatalf("re-parse of serialized output failed: %v\n%s", err, emitted)
		}
		if !first.Equal(second) {
			t.Errorf("round trip changed structure:\n%s", emitted)
		}
		// Re-emission of unmodified data is byte-for-byte stable.
		if again := Serialize(second); !bytes.Equal(emitted, again) {
			t.Errorf("serialization not stable:\nfirst:\n%s\nsecond:\n%s", emitted, again)
		}
	}
}

func TestSerialize_PreservesChildOrder(t *testing.T) {
	t.Parallel()

	root, err := ParseString(`"b" "2" "a" "1"`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := "\"b\"\t\t\"2\"\n\"a\"\t\t\"1\"\n"
	if got := string(Serialize(root)); got != want {
		t.Errorf("Serialize = %q, want %q", got, want)
	}
}

func TestSerialize_AfterMutation(t *testing.T) {
	t.Parallel()

	root, err := ParseString(sampleManifest)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	root.Child("AppState").Set("StagingFolder", "0")

	reparsed, err := Parse(Serialize(root))
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if got, _ := reparsed.Child("AppState").Get("StagingFolder"); got != "0" {
		t.Errorf("StagingFolder after mutation = %q, want %q", got, "0")
	}
	// Untouched fields keep their values and position.
	if got, _ := reparsed.Child("AppState").Get("SizeOnDisk"); got != "75896512354" {
		t.Errorf("SizeOnDisk = %q, want %q", got, "75896512354")
	}
	if keys := reparsed.Child("AppState").Keys(); keys[4] != "StagingFolder" {
		t.Errorf("StagingFolder moved: keys = %v", keys)
	}
}

func TestNode_Mutators(t *testing.T) {
	t.Parallel()

	n := NewNode()
	n.Set("a", "1")
	lib := n.SetChild("lib")
	lib.Set("path", "/tmp")

	if n.Child("lib") == nil {
		t.Fatal("expected lib block")
	}
	if !n.Delete("a") {
		t.Error("Delete(a) = false, want true")
	}
	if n.Delete("a") {
		t.Error("second Delete(a) = true, want false")
	}
	if _, ok := n.Get("a"); ok {
		t.Error("a still present after delete")
	}
	// SetChild on existing key returns the same block.
	if n.SetChild("lib") != n.Child("lib") {
		t.Error("SetChild returned a new block for existing key")
	}
}
