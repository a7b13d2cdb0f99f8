package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
	"github.com/hazyhaar/menuwatch/dbopen"
)

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "boba_status.json")
	s := NewFile(path)

	if err := s.Save(ctx, availability.State{WasUnavailable: true}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.WasUnavailable {
		t.Fatal("round trip lost was_unavailable=true")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"was_unavailable":true}` {
		t.Fatalf("file = %s", data)
	}
}

func TestFile_MissingDefaultsFalse(t *testing.T) {
	s := NewFile(filepath.Join(t.TempDir(), "nope.json"))
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.WasUnavailable {
		t.Fatal("missing file should default to false")
	}
}

func TestFile_CorruptDefaultsFalse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boba_status.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewFile(path).Load(context.Background())
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
	if got.WasUnavailable {
		t.Fatal("corrupt file should default to false")
	}
}

func TestFile_SaveUnwritable(t *testing.T) {
	s := NewFile(filepath.Join(t.TempDir(), "missing-dir", "boba_status.json"))
	err := s.Save(context.Background(), availability.State{})
	var pe *PersistError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PersistError", err)
	}
}

func TestEnv_Load(t *testing.T) {
	for raw, want := range map[string]bool{
		"true":  true,
		"TRUE":  true,
		" True": true,
		"false": false,
		"":      false,
		"yes":   false,
	} {
		st, err := (&Env{Prior: raw}).Load(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if st.WasUnavailable != want {
			t.Errorf("Prior=%q: got %v, want %v", raw, st.WasUnavailable, want)
		}
	}
}

func TestEnv_SaveWritesOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "github_output")
	s := &Env{OutputPath: out}
	if err := s.Save(context.Background(), availability.State{WasUnavailable: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), availability.State{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || lines[0] != "was_unavailable=true" || lines[1] != "was_unavailable=false" {
		t.Fatalf("output = %q", data)
	}
}

func TestEnv_SaveLogOnly(t *testing.T) {
	if err := (&Env{}).Save(context.Background(), availability.State{WasUnavailable: true}); err != nil {
		t.Fatal(err)
	}
}

func TestEnv_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	s := &Env{Prior: "false", OutputPath: filepath.Join(t.TempDir(), "github_output")}

	if err := s.Save(ctx, availability.State{WasUnavailable: true}); err != nil {
		t.Fatal(err)
	}
	st, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !st.WasUnavailable {
		t.Fatal("Load after Save(true) returned the injected prior")
	}

	if err := s.Save(ctx, availability.State{}); err != nil {
		t.Fatal(err)
	}
	if st, _ := s.Load(ctx); st.WasUnavailable {
		t.Fatal("Load after Save(false) = true")
	}
}

func TestEnv_FailedSaveKeepsValue(t *testing.T) {
	ctx := context.Background()
	s := &Env{Prior: "true", OutputPath: filepath.Join(t.TempDir(), "missing", "github_output")}

	if err := s.Save(ctx, availability.State{}); err == nil {
		t.Fatal("expected persist error")
	}
	st, _ := s.Load(ctx)
	if !st.WasUnavailable {
		t.Fatal("failed Save replaced the held value")
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	s := NewSQLite(db, "1/2 Boba~")

	got, err := s.Load(ctx)
	if err != nil || got.WasUnavailable {
		t.Fatalf("empty Load = %+v, %v", got, err)
	}
	if err := s.Save(ctx, availability.State{WasUnavailable: true}); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(ctx); !got.WasUnavailable {
		t.Fatal("expected true after save")
	}
	if err := s.Save(ctx, availability.State{}); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(ctx); got.WasUnavailable {
		t.Fatal("expected false after overwrite")
	}

	var rows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM availability_state`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
}

func TestSQLite_Corrupt(t *testing.T) {
	ctx := context.Background()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	if _, err := db.Exec(`INSERT INTO availability_state VALUES ('x', 7, 0)`); err != nil {
		t.Fatal(err)
	}
	got, err := NewSQLite(db, "x").Load(ctx)
	if !errors.Is(err, ErrCorrupt) || got.WasUnavailable {
		t.Fatalf("Load = %+v, %v", got, err)
	}
}

func TestOpenSQLite_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "boba_status.db")
	s, err := OpenSQLite(path, "item")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, availability.State{WasUnavailable: true}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path, "item")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if got, _ := s.Load(ctx); !got.WasUnavailable {
		t.Fatal("state not durable across reopen")
	}
}
