package tokfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	a := New("run-1234", `\p{L}+`)
	a.AddMerge("\n", "aaab", 1)
	a.AddMerge("aaab", "\naaab", 1)
	a.AddMerge(" ", "the", 42)
	a.Stats = Stats{Passes: 4, TargetSize: 3, TrainMS: 17}

	path := filepath.Join(t.TempDir(), "tok"+Ext)
	if err := Save(path, a); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.Format != FormatName || got.Version != CurrentVersion {
		t.Fatalf("header mismatch: %q v%d", got.Format, got.Version)
	}
	if got.RunID != "run-1234" {
		t.Fatalf("run id mismatch: got %q", got.RunID)
	}
	if got.Pretokenizer != `\p{L}+` {
		t.Fatalf("pretokenizer mismatch: got %q", got.Pretokenizer)
	}
	if got.Stats != a.Stats {
		t.Fatalf("stats mismatch: got %+v want %+v", got.Stats, a.Stats)
	}

	pairs, err := got.MergePairs()
	if err != nil {
		t.Fatalf("merge pairs: %v", err)
	}
	want := [][2]string{{"\n", "aaab"}, {"aaab", "\naaab"}, {" ", "the"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Fatalf("pairs mismatch: got %q want %q", pairs, want)
	}
	if !reflect.DeepEqual(got.Vocab, a.Vocab) {
		t.Fatalf("vocab mismatch: got %v want %v", got.Vocab, a.Vocab)
	}
}

func TestAddMergeEncodesWhitespace(t *testing.T) {
	t.Parallel()

	a := New("r", "p")
	a.AddMerge("\n", "aaab", 1)
	a.AddMerge(" ", "b", 9)

	if a.Merges[0] != "Ċ aaab" {
		t.Fatalf("merge line mismatch: got %q want %q", a.Merges[0], "Ċ aaab")
	}
	if a.Merges[1] != "Ġ b" {
		t.Fatalf("merge line mismatch: got %q want %q", a.Merges[1], "Ġ b")
	}
	if got := a.Vocab["Ċaaab"]; got != 1 {
		t.Fatalf("vocab entry mismatch: got %d want 1", got)
	}
	if got := a.Vocab["Ġb"]; got != 9 {
		t.Fatalf("vocab entry mismatch: got %d want 9", got)
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		mod  func(a *Artifact)
		want error
	}{
		{"wrong format", func(a *Artifact) { a.Format = "something/else" }, ErrInvalidFormat},
		{"future version", func(a *Artifact) { a.Version = CurrentVersion + 1 }, ErrUnsupportedVersion},
		{"zero version", func(a *Artifact) { a.Version = 0 }, ErrUnsupportedVersion},
		{"one-field merge", func(a *Artifact) { a.Merges = append(a.Merges, "lonely") }, ErrCorruptFile},
		{"three-field merge", func(a *Artifact) { a.Merges = append(a.Merges, "a b c") }, ErrCorruptFile},
		{"unmappable merge rune", func(a *Artifact) { a.Merges = append(a.Merges, "α β") }, ErrCorruptFile},
		{"unmappable vocab rune", func(a *Artifact) { a.Vocab["α"] = 1 }, ErrCorruptFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := New("r", "p")
			a.AddMerge("a", "b", 2)
			tc.mod(a)
			if err := a.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
		})
	}
}

func TestLoadRejectsCorruptJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad"+Ext)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("got %v want ErrCorruptFile", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent"+Ext)); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestSaveCreatesParentDirs(t *testing.T) {
	t.Parallel()

	a := New("r", "p")
	path := filepath.Join(t.TempDir(), "out", "nested", "tok"+Ext)
	if err := Save(path, a); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat saved file: %v", err)
	}
}

func TestSaveValidatesFirst(t *testing.T) {
	t.Parallel()

	a := New("r", "p")
	a.Format = "wrong"
	path := filepath.Join(t.TempDir(), "tok"+Ext)
	if err := Save(path, a); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("got %v want ErrInvalidFormat", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("invalid artifact was written anyway: %v", err)
	}
}

func TestTopEntries(t *testing.T) {
	t.Parallel()

	a := New("r", "p")
	a.Vocab = map[string]uint64{
		"aa": 5,
		"ab": 5,
		"b":  7,
		"zz": 1,
	}

	top, err := a.TopEntries(2)
	if err != nil {
		t.Fatalf("top entries: %v", err)
	}
	want := []Entry{{Symbol: "b", Freq: 7}, {Symbol: "aa", Freq: 5}}
	if !reflect.DeepEqual(top, want) {
		t.Fatalf("top mismatch: got %v want %v", top, want)
	}

	all, err := a.TopEntries(0)
	if err != nil {
		t.Fatalf("all entries: %v", err)
	}
	wantAll := []Entry{
		{Symbol: "b", Freq: 7},
		{Symbol: "aa", Freq: 5},
		{Symbol: "ab", Freq: 5},
		{Symbol: "zz", Freq: 1},
	}
	if !reflect.DeepEqual(all, wantAll) {
		t.Fatalf("all mismatch: got %v want %v", all, wantAll)
	}

	over, err := a.TopEntries(100)
	if err != nil {
		t.Fatalf("over entries: %v", err)
	}
	if !reflect.DeepEqual(over, wantAll) {
		t.Fatalf("over mismatch: got %v want %v", over, wantAll)
	}
}

func TestTopEntriesDecodes(t *testing.T) {
	t.Parallel()

	a := New("r", "p")
	a.AddMerge(" ", "the", 3)
	top, err := a.TopEntries(1)
	if err != nil {
		t.Fatalf("top entries: %v", err)
	}
	if len(top) != 1 || top[0].Symbol != " the" || top[0].Freq != 3 {
		t.Fatalf("entry mismatch: got %+v", top)
	}
}
