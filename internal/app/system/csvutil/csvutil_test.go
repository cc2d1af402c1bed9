package csvutil

import (
	"strings"
	"testing"
)

func TestPreScanMembersCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantRows []MemberRow
		wantErrs []RowError
	}{
		{
			name:  "header skipped",
			input: "Full Name,Email,Phone\nMaria Silva,maria@example.com,81999990000\n",
			wantRows: []MemberRow{
				{FullName: "Maria Silva", Email: "maria@example.com", Phone: "81999990000"},
			},
		},
		{
			name:  "portuguese header skipped",
			input: "Nome Completo,Email\nJoão Souza,joao@example.com\n",
			wantRows: []MemberRow{
				{FullName: "João Souza", Email: "joao@example.com"},
			},
		},
		{
			name:  "no header first row kept",
			input: "Ana Lima,ana@example.com\n",
			wantRows: []MemberRow{
				{FullName: "Ana Lima", Email: "ana@example.com"},
			},
		},
		{
			name:  "name only row is valid",
			input: "Pedro Alves\n",
			wantRows: []MemberRow{
				{FullName: "Pedro Alves"},
			},
		},
		{
			name:  "blank lines skipped",
			input: "Full Name,Email\nMaria Silva,maria@example.com\n,,\n",
			wantRows: []MemberRow{
				{FullName: "Maria Silva", Email: "maria@example.com"},
			},
		},
		{
			name:     "missing name rejected",
			input:    "Full Name,Email\n,semnome@example.com\n",
			wantErrs: []RowError{{Line: 2, Reason: "missing full name"}},
		},
		{
			name:     "malformed email rejected",
			input:    "Full Name,Email\nMaria Silva,not-an-email\n",
			wantErrs: []RowError{{Line: 2, Reason: "malformed email"}},
		},
		{
			name:  "empty file",
			input: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, rowErrs, err := PreScanMembersCSV(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("PreScanMembersCSV() error = %v", err)
			}
			if len(tt.wantErrs) > 0 {
				if rows != nil {
					t.Errorf("rows = %v, want nil when errors present", rows)
				}
				if len(rowErrs) != len(tt.wantErrs) {
					t.Fatalf("got %d row errors, want %d: %v", len(rowErrs), len(tt.wantErrs), rowErrs)
				}
				for i, want := range tt.wantErrs {
					if rowErrs[i] != want {
						t.Errorf("rowErrs[%d] = %+v, want %+v", i, rowErrs[i], want)
					}
				}
				return
			}
			if len(rowErrs) != 0 {
				t.Fatalf("unexpected row errors: %v", rowErrs)
			}
			if len(rows) != len(tt.wantRows) {
				t.Fatalf("got %d rows, want %d: %v", len(rows), len(tt.wantRows), rows)
			}
			for i, want := range tt.wantRows {
				if rows[i] != want {
					t.Errorf("rows[%d] = %+v, want %+v", i, rows[i], want)
				}
			}
		})
	}
}

func TestPreScanMembersCSV_AllErrorsReported(t *testing.T) {
	input := "Full Name,Email\n,first@example.com\nMaria Silva,bad-email\n"
	rows, rowErrs, err := PreScanMembersCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("PreScanMembersCSV() error = %v", err)
	}
	if rows != nil {
		t.Errorf("rows = %v, want nil", rows)
	}
	if len(rowErrs) != 2 {
		t.Fatalf("got %d row errors, want 2: %v", len(rowErrs), rowErrs)
	}
}
