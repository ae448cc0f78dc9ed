package sqlguard

import (
	"errors"
	"strings"
	"testing"

	"github.com/lubobali/mergeAI/pkg/apperrors"
)

func TestValidate_AcceptsReadQueries(t *testing.T) {
	valid := []string{
		"SELECT * FROM uploaded_rows",
		"select row_data->>'Salary' from uploaded_rows",
		"  WITH emp AS (SELECT 1) SELECT * FROM emp",
		"with emp as (select 1) select * from emp",
	}
	for _, q := range valid {
		if err := Validate(q); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", q, err)
		}
	}
}

func TestValidate_RejectsNonReadQueries(t *testing.T) {
	invalid := []string{
		"INSERT INTO uploaded_rows VALUES (1)",
		"EXPLAIN SELECT 1",
		"VACUUM",
		"",
		"  ",
	}
	for _, q := range invalid {
		if err := Validate(q); !errors.Is(err, apperrors.ErrNotReadQuery) {
			t.Errorf("Validate(%q) = %v, want ErrNotReadQuery", q, err)
		}
	}
}

func TestValidate_RejectsMultiStatement(t *testing.T) {
	q := "SELECT 1; DROP TABLE uploaded_rows"
	if err := Validate(q); !errors.Is(err, apperrors.ErrMultiStatement) {
		t.Errorf("Validate(%q) = %v, want ErrMultiStatement", q, err)
	}
}

func TestValidate_SemicolonInsideLiteralAllowed(t *testing.T) {
	q := "SELECT * FROM uploaded_rows WHERE row_data->>'note' = 'a;b'"
	if err := Validate(q); err != nil {
		t.Errorf("semicolon inside string literal should pass, got %v", err)
	}
}

func TestValidate_RejectsBlockedKeywords(t *testing.T) {
	tests := []struct {
		sql     string
		keyword string
	}{
		{"SELECT * FROM t WHERE delete = 1", "DELETE"},
		{"WITH x AS (SELECT 1) SELECT * FROM x; TRUNCATE t", ""}, // caught by separator first
		{"SELECT * FROM t WHERE grant = 1", "GRANT"},
		{"SELECT drop FROM t", "DROP"},
		{"select * from t where TRUNCATE is not null", "TRUNCATE"},
	}
	for _, tt := range tests {
		err := Validate(tt.sql)
		if err == nil {
			t.Errorf("Validate(%q) = nil, want rejection", tt.sql)
			continue
		}
		if tt.keyword != "" {
			if !errors.Is(err, apperrors.ErrBlockedKeyword) {
				t.Errorf("Validate(%q) = %v, want ErrBlockedKeyword", tt.sql, err)
			}
			if !strings.Contains(err.Error(), tt.keyword) {
				t.Errorf("rejection for %q should name keyword %s, got %v", tt.sql, tt.keyword, err)
			}
		}
	}
}

func TestValidate_WholeWordBoundaries(t *testing.T) {
	// Substrings of blocked keywords and keywords inside string literals
	// must not trigger.
	allowed := []string{
		"SELECT * FROM t WHERE note = 'please delete'",
		"SELECT selectable FROM t",
		"SELECT updated_at FROM t",
		"SELECT created_at FROM t",
		"SELECT dropped_calls FROM t",
	}
	for _, q := range allowed {
		if err := Validate(q); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", q, err)
		}
	}
}

func TestEnforceLimit_AppendsWhenMissing(t *testing.T) {
	got := EnforceLimit("SELECT * FROM uploaded_rows", 200)
	want := "SELECT * FROM uploaded_rows LIMIT 200"
	if got != want {
		t.Errorf("EnforceLimit = %q, want %q", got, want)
	}
}

func TestEnforceLimit_AppendsExactlyOnce(t *testing.T) {
	got := EnforceLimit("SELECT * FROM uploaded_rows\n", 200)
	if strings.Count(strings.ToUpper(got), "LIMIT") != 1 {
		t.Errorf("expected exactly one LIMIT clause: %q", got)
	}
	if strings.Contains(got, "\n LIMIT") {
		t.Errorf("trailing whitespace should be trimmed before appending: %q", got)
	}
}

func TestEnforceLimit_LeavesExistingLimit(t *testing.T) {
	q := "SELECT * FROM uploaded_rows LIMIT 50"
	if got := EnforceLimit(q, 200); got != q {
		t.Errorf("EnforceLimit = %q, want unmodified %q", got, q)
	}
}

func TestEnforceLimit_DefaultCap(t *testing.T) {
	got := EnforceLimit("SELECT 1", 0)
	if !strings.HasSuffix(got, "LIMIT 200") {
		t.Errorf("expected default cap 200, got %q", got)
	}
}

func TestCheckTextForInjection_CleanQuestion(t *testing.T) {
	if res := CheckTextForInjection("question", "what is the average salary by department"); res != nil {
		t.Errorf("plain question flagged as injection: %+v", res)
	}
}

func TestCheckTextForInjection_SQLiPayload(t *testing.T) {
	res := CheckTextForInjection("question", "' OR 1=1 --")
	if res == nil {
		t.Fatal("expected injection fingerprint for classic payload")
	}
	if res.Field != "question" || res.Fingerprint == "" {
		t.Errorf("incomplete result: %+v", res)
	}
}

func TestCheckTextForInjection_Empty(t *testing.T) {
	if res := CheckTextForInjection("question", ""); res != nil {
		t.Errorf("empty input should not be flagged: %+v", res)
	}
}
