package llm

import (
	"errors"
	"testing"
)

func TestParseObject_PlainJSON(t *testing.T) {
	obj, err := ParseObject(`{"theme":"edo"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["theme"] != "edo" {
		t.Errorf("theme = %v, want edo", obj["theme"])
	}
}

func TestParseObject_CodeFence(t *testing.T) {
	for _, raw := range []string{
		"```json\n{\"theme\":\"edo\"}\n```",
		"```\n{\"theme\":\"edo\"}\n```",
	} {
		obj, err := ParseObject(raw)
		if err != nil {
			t.Fatalf("ParseObject(%q): %v", raw, err)
		}
		if obj["theme"] != "edo" {
			t.Errorf("theme = %v, want edo", obj["theme"])
		}
	}
}

func TestParseObject_SurroundingProse(t *testing.T) {
	raw := "Here is your lesson:\n{\"theme\":\"meiji\",\"note\":\"has {braces} in string\"}\nHope that helps!"
	obj, err := ParseObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["theme"] != "meiji" {
		t.Errorf("theme = %v, want meiji", obj["theme"])
	}
}

func TestParseObject_NestedBraces(t *testing.T) {
	raw := `noise {"a":{"b":{"c":1}}} trailing`
	obj, err := ParseObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := obj["a"].(map[string]any); !ok {
		t.Errorf("a = %v, want nested object", obj["a"])
	}
}

func TestParseObject_Empty(t *testing.T) {
	_, err := ParseObject("   \n ")
	var empty *ErrEmptyResponse
	if !errors.As(err, &empty) {
		t.Fatalf("got %v, want ErrEmptyResponse", err)
	}
}

func TestParseObject_NoObject(t *testing.T) {
	_, err := ParseObject("the shogunate fell in 1867")
	var malformed *ErrMalformedOutput
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want ErrMalformedOutput", err)
	}
}

func TestParseObject_NonObjectJSON(t *testing.T) {
	_, err := ParseObject(`[1,2,3]`)
	var invalid *ErrInvalidData
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want ErrInvalidData", err)
	}
}

func TestStripFences_Unfenced(t *testing.T) {
	if got := stripFences(`{"a":1}`); got != `{"a":1}` {
		t.Errorf("stripFences altered unfenced input: %q", got)
	}
}
