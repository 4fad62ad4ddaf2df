package llm

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestExtractJSONStrategies(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"direct", `["a.js","b.css"]`, `["a.js","b.css"]`},
		{"fenced", "Here is the plan:\n```json\n[\"index.html\"]\n```\nDone.", `["index.html"]`},
		{"fenced upper", "```JSON\n{\"thought\":\"x\",\"files\":[]}\n```", `{"thought":"x","files":[]}`},
		{"object in prose", `Sure! {"thought":"ok","files":[]} hope that helps`, `{"thought":"ok","files":[]}`},
		{"array in prose", `The files are ["style.css", "index.html"].`, `["style.css", "index.html"]`},
		{"braces in strings", `x {"thought":"use } carefully","files":[]} y`, `{"thought":"use } carefully","files":[]}`},
		{"trailing comma", "```json\n[\"a.js\",]\n```", `["a.js"]`},
		{"skips invalid first object", `{not json} then {"ok":true}`, `{"ok":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := ExtractJSON(tc.raw)
			if err != nil {
				t.Fatalf("ExtractJSON returned error: %v", err)
			}
			var got, want any
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("expected valid JSON, got error: %v", err)
			}
			_ = json.Unmarshal([]byte(tc.want), &want)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("unexpected value: got %s want %s", data, tc.want)
			}
		})
	}
}

func TestExtractJSONObjectBeforeArray(t *testing.T) {
	data, err := ExtractJSON(`list ["a"] then {"thought":"t","files":[]}`)
	if err != nil {
		t.Fatalf("ExtractJSON returned error: %v", err)
	}
	if data[0] != '{' {
		t.Fatalf("object strategy should win over array strategy, got %s", data)
	}
}

func TestExtractJSONNoJSON(t *testing.T) {
	_, err := ExtractJSON("I could not do that, sorry.")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Excerpt == "" {
		t.Fatalf("expected excerpt in parse error")
	}
}

func TestDecodePlan(t *testing.T) {
	got, err := DecodePlan("```json\n[\"./style.css\", \"index.html\", \"\"]\n```")
	if err != nil {
		t.Fatalf("DecodePlan returned error: %v", err)
	}
	if want := []string{"style.css", "index.html"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("DecodePlan = %v, want %v", got, want)
	}
	if _, err := DecodePlan(`{"files":"nope"}`); err == nil {
		t.Fatalf("expected shape error for non-array plan")
	}
}

func TestDecodeChangeSet(t *testing.T) {
	raw := `Here you go {"thought":"Add page","commands":["npm install lodash"],"files":[
		{"operation":"create","path":"about.html","content":"<h1>About</h1>"},
		{"operation":"DELETE","path":"old.js","content":"ignored"}]}`
	cs, err := DecodeChangeSet(raw)
	if err != nil {
		t.Fatalf("DecodeChangeSet returned error: %v", err)
	}
	if cs.Rationale != "Add page" || len(cs.Commands) != 1 || len(cs.Operations) != 2 {
		t.Fatalf("unexpected change-set: %+v", cs)
	}
	if cs.Operations[0].Kind != "CREATE" || *cs.Operations[0].Content != "<h1>About</h1>" {
		t.Fatalf("unexpected create op: %+v", cs.Operations[0])
	}
	if cs.Operations[1].Content != nil {
		t.Fatalf("delete op should carry no content")
	}
}

func TestDecodeChangeSetFailsClosed(t *testing.T) {
	cases := map[string]string{
		"unknown op":      `{"thought":"","files":[{"operation":"RENAME","path":"a"}]}`,
		"missing content": `{"thought":"","files":[{"operation":"UPDATE","path":"a"}]}`,
		"empty path":      `{"thought":"","files":[{"operation":"CREATE","path":" ","content":""}]}`,
		"array":           `["a.js"]`,
		"prose":           `no json here`,
		"null":            `null`,
		"empty object":    `{}`,
		"error payload":   `{"error":"quota exceeded"}`,
		"null files":      `{"thought":"x","files":null}`,
		"fenced refusal":  "Sorry.\n```json\n{\"message\":\"I cannot help\"}\n```",
	}
	for name, raw := range cases {
		if _, err := DecodeChangeSet(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDecodeChangeSetAllowsEmptyFiles(t *testing.T) {
	cs, err := DecodeChangeSet(`{"thought":"just install","commands":["npm i"],"files":[]}`)
	if err != nil {
		t.Fatalf("DecodeChangeSet returned error: %v", err)
	}
	if len(cs.Operations) != 0 || len(cs.Commands) != 1 {
		t.Fatalf("unexpected change-set: %+v", cs)
	}
}
