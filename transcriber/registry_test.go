package transcriber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFindModel(t *testing.T) {
	if _, ok := FindModel(DefaultModelID); !ok {
		t.Fatal("default model missing from catalog")
	}
	if _, ok := FindModel("no-such-model"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestModelReady(t *testing.T) {
	dir := t.TempDir()
	restore := SetModelsDir(dir)
	defer restore()

	if ModelReady("whisper-small-q5_1") {
		t.Fatal("model should not be ready in an empty dir")
	}

	modelDir := filepath.Join(dir, "whisper-small-q5_1")
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(modelDir, "model.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !ModelReady("whisper-small-q5_1") {
		t.Error("model with all files on disk should be ready")
	}
	if got := ModelDiskSize("whisper-small-q5_1"); got != 1 {
		t.Errorf("DiskSize = %d, want 1", got)
	}
	if !AnyModelReady() {
		t.Error("AnyModelReady should see the ready model")
	}
}

func TestAllModelStatusCoversCatalog(t *testing.T) {
	restore := SetModelsDir(t.TempDir())
	defer restore()

	statuses := AllModelStatus()
	if len(statuses) != len(Models) {
		t.Fatalf("got %d statuses, want %d", len(statuses), len(Models))
	}
	families := map[EngineFamily]bool{}
	for _, s := range statuses {
		families[s.Family] = true
		if s.SizeLabel == "" {
			t.Errorf("%s: empty size label", s.ID)
		}
	}
	if !families[FamilyParakeet] || !families[FamilyWhisper] {
		t.Error("catalog should span both engine families")
	}
}

func TestSizeLabel(t *testing.T) {
	for _, tt := range []struct {
		bytes int64
		want  string
	}{
		{190_000_000, "190 MB"},
		{1_500_000_000, "1.5 GB"},
	} {
		if got := SizeLabel(tt.bytes); got != tt.want {
			t.Errorf("SizeLabel(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestDeleteModelMissingIsNoop(t *testing.T) {
	restore := SetModelsDir(t.TempDir())
	defer restore()

	if err := DeleteModel("whisper-small-q5_1"); err != nil {
		t.Errorf("deleting an absent model: %v", err)
	}
	if err := DeleteModel("no-such-model"); err == nil {
		t.Error("deleting an unknown id should fail")
	}
}

func TestEnsureModelBusy(t *testing.T) {
	restore := SetModelsDir(t.TempDir())
	defer restore()

	downloadInProgress.Store(true)
	defer downloadInProgress.Store(false)

	err := EnsureModel(context.Background(), nil, "whisper-small-q5_1")
	if !errors.Is(err, ErrDownloadBusy) {
		t.Fatalf("err = %v, want ErrDownloadBusy", err)
	}
}
