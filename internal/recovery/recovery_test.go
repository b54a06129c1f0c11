package recovery

import (
	"reflect"
	"strings"
	"testing"
)

type payload struct {
	A int    `json:"a"`
	B string `json:"b,omitempty"`
}

func fallbackPayload(reason string) payload {
	return payload{A: -1, B: "conservative default"}
}

func TestRecover_FencedJSON(t *testing.T) {
	res := Recover("```json\n{\"a\":1}\n```", fallbackPayload)

	if res.Kind != KindParsed {
		t.Fatalf("expected parsed result, got %s (reason %q)", res.Kind, res.Reason)
	}
	if res.Value.A != 1 {
		t.Fatalf("expected a=1, got %d", res.Value.A)
	}
}

func TestRecover_BareFences(t *testing.T) {
	res := Recover("```\n{\"a\":2}\n```", fallbackPayload)

	if res.Kind != KindParsed || res.Value.A != 2 {
		t.Fatalf("expected parsed a=2, got %+v", res)
	}
}

func TestRecover_LeadingAndTrailingProse(t *testing.T) {
	res := Recover("Voici le résultat: {\"a\":1} Merci.", fallbackPayload)

	if res.Kind != KindParsed {
		t.Fatalf("expected parsed result, got %s (reason %q)", res.Kind, res.Reason)
	}
	if res.Value.A != 1 {
		t.Fatalf("expected a=1, got %d", res.Value.A)
	}
}

func TestRecover_StrayInnerFence(t *testing.T) {
	raw := "Intro\n```json\n{\"a\":3,\n```\n\"b\":\"x\"}\nOutro"
	res := Recover(raw, fallbackPayload)

	if res.Kind != KindParsed || res.Value.A != 3 || res.Value.B != "x" {
		t.Fatalf("expected parsed a=3 b=x, got %+v", res)
	}
}

func TestRecover_NoJSONFallsBack(t *testing.T) {
	res := Recover("The patient should rest.", fallbackPayload)

	if res.Kind != KindFallback {
		t.Fatalf("expected fallback, got %s", res.Kind)
	}
	if res.Reason != "no JSON object found" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
	if res.Value.A != -1 {
		t.Fatalf("fallback value not substituted: %+v", res.Value)
	}
}

func TestRecover_UnbalancedBracesNoted(t *testing.T) {
	res := Recover("the result is {ok, and also {\"a\":1}", fallbackPayload)

	if res.Kind != KindFallback {
		t.Fatalf("expected fallback, got %s", res.Kind)
	}
	if !strings.Contains(res.Reason, "unbalanced braces") {
		t.Fatalf("reason should flag suspicious bracket balance, got %q", res.Reason)
	}
}

func TestRecover_Idempotent(t *testing.T) {
	raw := "not json at all"
	first := Recover(raw, fallbackPayload)
	second := Recover(raw, fallbackPayload)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recover is not deterministic: %+v vs %+v", first, second)
	}
}

func TestFallback_WrapsValue(t *testing.T) {
	res := Fallback(payload{A: 9}, "gateway timeout")

	if !res.Degraded() {
		t.Fatal("expected degraded result")
	}
	if res.Value.A != 9 || res.Reason != "gateway timeout" {
		t.Fatalf("unexpected result %+v", res)
	}
}
