package expr

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func num(s string) Value { return Number(decimal.RequireFromString(s)) }

func testEnv() Env {
	return Env{
		"type":        String("OL"),
		"description": String("Office lease Q3"),
		"amount":      num("1200.50"),
		"year":        num("2024"),
		"quarter":     num("3"),
	}
}

func TestEval(t *testing.T) {
	testCases := []struct {
		name      string
		condition string
		want      bool
	}{
		{"string equality", `type == "OL"`, true},
		{"string equality is case sensitive", `type == "ol"`, false},
		{"string inequality", `type != "ZZ"`, true},
		{"single quoted string", `type == 'OL'`, true},
		{"number equality", `year == 2024`, true},
		{"number greater than", `amount > 1000`, true},
		{"number less or equal", `amount <= 1200.50`, true},
		{"decimal precision", `amount == 1200.50`, true},
		{"negative literal", `amount > -1`, true},
		{"and both true", `type == "OL" and amount > 1000`, true},
		{"and one false", `type == "OL" and amount > 2000`, false},
		{"or", `type == "ZZ" or year == 2024`, true},
		{"not", `not (type == "ZZ")`, true},
		{"precedence and binds tighter than or", `type == "ZZ" and year == 2024 or quarter == 3`, true},
		{"grouping changes precedence", `type == "ZZ" and (year == 2024 or quarter == 3)`, false},
		{"string ordering", `type >= "OA"`, true},
		{"bool literal", `true`, true},
		{"bool comparison", `(amount > 0) == true`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := Parse(tc.condition)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tc.condition, err)
			}
			got, err := Eval(e, testEnv())
			if err != nil {
				t.Fatalf("Eval(%q) returned error: %v", tc.condition, err)
			}
			if got != tc.want {
				t.Errorf("Eval(%q) = %v, want %v", tc.condition, got, tc.want)
			}
		})
	}
}

func TestEvalIsPure(t *testing.T) {
	e, err := Parse(`type == "OL" and amount > 1000`)
	if err != nil {
		t.Fatal(err)
	}
	env := testEnv()
	first, err := Eval(e, env)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		got, err := Eval(e, env)
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("evaluation %d returned %v, first returned %v", i, got, first)
		}
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	testCases := []struct {
		name      string
		condition string
	}{
		{"empty", ``},
		{"dangling operator", `type ==`},
		{"unbalanced paren", `(type == "OL"`},
		{"single equals", `type = "OL"`},
		{"unterminated string", `type == "OL`},
		{"trailing garbage", `type == "OL" year`},
		{"lone keyword", `and`},
		{"bad rune", `type == "OL" @`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.condition)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want syntax error", tc.condition)
			}
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Errorf("Parse(%q) error = %T, want *SyntaxError", tc.condition, err)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		e, err := Parse(`missing == "x"`)
		if err != nil {
			t.Fatal(err)
		}
		_, err = Eval(e, testEnv())
		var unknownErr *UnknownFieldError
		if !errors.As(err, &unknownErr) {
			t.Fatalf("Eval error = %v, want *UnknownFieldError", err)
		}
		if unknownErr.Field != "missing" {
			t.Errorf("unknown field = %q, want %q", unknownErr.Field, "missing")
		}
	})

	t.Run("type mismatch", func(t *testing.T) {
		e, err := Parse(`type > 100`)
		if err != nil {
			t.Fatal(err)
		}
		_, err = Eval(e, testEnv())
		var mismatchErr *TypeMismatchError
		if !errors.As(err, &mismatchErr) {
			t.Fatalf("Eval error = %v, want *TypeMismatchError", err)
		}
	})

	t.Run("non boolean condition", func(t *testing.T) {
		e, err := Parse(`amount`)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Eval(e, testEnv()); err == nil {
			t.Fatal("Eval succeeded on a non-boolean condition, want error")
		}
	})

	t.Run("and over non boolean operand", func(t *testing.T) {
		e, err := Parse(`amount and true`)
		if err != nil {
			t.Fatal(err)
		}
		var mismatchErr *TypeMismatchError
		if _, err := Eval(e, testEnv()); !errors.As(err, &mismatchErr) {
			t.Fatalf("Eval error = %v, want *TypeMismatchError", err)
		}
	})
}

func TestShortCircuit(t *testing.T) {
	// The right operand references an unknown field; short-circuiting must
	// keep it unevaluated.
	e, err := Parse(`type == "OL" or missing == 1`)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Eval(e, testEnv())
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !got {
		t.Error("Eval = false, want true")
	}

	e, err = Parse(`type == "ZZ" and missing == 1`)
	if err != nil {
		t.Fatal(err)
	}
	got, err = Eval(e, testEnv())
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if got {
		t.Error("Eval = true, want false")
	}
}
