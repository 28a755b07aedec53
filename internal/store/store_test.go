package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

const ruleDoc = `name: oom_kill
priority: 3
elements:
  - kind: substring
    text: oom
`

func TestInitSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS rules").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := New(db)
	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO rules").
		WithArgs("oom_kill", uint32(3), ruleDoc).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := New(db)
	r, err := s.Upsert(context.Background(), ruleDoc)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if r.Name != "oom_kill" || r.Priority != 3 {
		t.Fatalf("compiled rule = %+v", r)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpsertRejectsBadDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s := New(db)
	if _, err := s.Upsert(context.Background(), "name: broken\n"); err == nil {
		t.Fatal("document that does not compile must not reach the table")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM rules").
		WithArgs("oom_kill").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM rules").
		WithArgs("absent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := New(db)
	ok, err := s.Delete(context.Background(), "oom_kill")
	if err != nil || !ok {
		t.Fatalf("delete existing: ok=%v err=%v", ok, err)
	}
	ok, err = s.Delete(context.Background(), "absent")
	if err != nil || ok {
		t.Fatalf("delete absent: ok=%v err=%v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAllAndCompile(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"name", "priority", "document", "updated_at"}).
		AddRow("oom_kill", uint32(3), ruleDoc, now)
	mock.ExpectQuery("SELECT name, priority, document, updated_at FROM rules").
		WillReturnRows(rows)

	s := New(db)
	rules, err := s.CompileAll(context.Background())
	if err != nil {
		t.Fatalf("compile all: %v", err)
	}
	if len(rules) != 1 || rules[0].Name != "oom_kill" {
		t.Fatalf("rules = %+v", rules)
	}
	if len(rules[0].Pattern.Elements) != 1 {
		t.Fatalf("pattern elements = %d", len(rules[0].Pattern.Elements))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCompileAllFailsOnCorruptRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"name", "priority", "document", "updated_at"}).
		AddRow("broken", uint32(0), "name: broken\n", time.Now())
	mock.ExpectQuery("SELECT name, priority, document, updated_at FROM rules").
		WillReturnRows(rows)

	s := New(db)
	if _, err := s.CompileAll(context.Background()); err == nil {
		t.Fatal("a corrupt stored document must fail the load")
	}
}
