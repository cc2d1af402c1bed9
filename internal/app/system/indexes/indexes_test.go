package indexes

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestKeySig(t *testing.T) {
	tests := []struct {
		name string
		keys bson.D
		want string
	}{
		{
			name: "single ascending",
			keys: bson.D{{Key: "email", Value: 1}},
			want: "email:1",
		},
		{
			name: "compound with descending",
			keys: bson.D{{Key: "celula_id", Value: 1}, {Key: "meeting_date", Value: -1}},
			want: "celula_id:1, meeting_date:-1",
		},
		{
			name: "empty",
			keys: bson.D{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keySig(tt.keys); got != tt.want {
				t.Errorf("keySig() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeySig_OrderSensitive(t *testing.T) {
	a := keySig(bson.D{{Key: "matrix_id", Value: 1}, {Key: "name_ci", Value: 1}})
	b := keySig(bson.D{{Key: "name_ci", Value: 1}, {Key: "matrix_id", Value: 1}})
	if a == b {
		t.Errorf("key signatures with different field order must differ, both %q", a)
	}
}

func TestSameBoolPtr(t *testing.T) {
	truev := true
	falsev := false
	tests := []struct {
		name string
		a, b *bool
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs false", nil, &falsev, true},
		{"nil vs true", nil, &truev, false},
		{"true vs true", &truev, &truev, true},
		{"true vs false", &truev, &falsev, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameBoolPtr(tt.a, tt.b); got != tt.want {
				t.Errorf("sameBoolPtr() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDuplicateKeyErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{
			"write exception with 11000",
			mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}},
			true,
		},
		{
			"write exception other code",
			mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 2}}},
			false,
		},
		{
			"command error 11000",
			mongo.CommandError{Code: 11000, Message: "dup"},
			true,
		},
		{
			"string match E11000",
			errors.New("E11000 duplicate key error index"),
			true,
		},
		{
			"string match lowercase",
			errors.New("some vendor: Duplicate Key violation"),
			true,
		},
		{"unrelated", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicateKeyErr(tt.err); got != tt.want {
				t.Errorf("isDuplicateKeyErr() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOptionsConflictErr(t *testing.T) {
	if isOptionsConflictErr(nil) {
		t.Error("nil must not be a conflict")
	}
	if !isOptionsConflictErr(errors.New("(IndexOptionsConflict) Index with name: idx_x already exists")) {
		t.Error("IndexOptionsConflict message not detected")
	}
	if isOptionsConflictErr(errors.New("network timeout")) {
		t.Error("unrelated error flagged as conflict")
	}
}
