package transcriber

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EngineFamily tags which runner a model definition belongs to.
type EngineFamily string

const (
	FamilyParakeet EngineFamily = "parakeet"
	FamilyWhisper  EngineFamily = "whisper"
)

type ModelFile struct {
	URL string
	// RenameTo, when non-empty, is the on-disk name after download.
	RenameTo string
}

type ModelDef struct {
	ID          string
	Name        string
	Family      EngineFamily
	Description string
	ApproxBytes int64
	Files       []ModelFile
}

// ModelStatus is the catalog view handed to the UI.
type ModelStatus struct {
	ID          string
	Name        string
	Family      EngineFamily
	Description string
	SizeLabel   string
	Ready       bool
	DiskSize    int64
	Path        string
}

const DefaultModelID = "parakeet-tdt-0.6b-v3"

var Models = []ModelDef{
	{
		ID:          "parakeet-tdt-0.6b-v3",
		Name:        "Parakeet TDT 0.6b v3",
		Family:      FamilyParakeet,
		Description: "Fast, accurate English transcription. Best balance of speed and quality.",
		ApproxBytes: 680_000_000,
		Files: []ModelFile{
			{URL: "https://huggingface.co/istupakov/parakeet-tdt-0.6b-v3-onnx/resolve/main/encoder-model.int8.onnx", RenameTo: "encoder-model.onnx"},
			{URL: "https://huggingface.co/istupakov/parakeet-tdt-0.6b-v3-onnx/resolve/main/decoder_joint-model.int8.onnx", RenameTo: "decoder_joint-model.onnx"},
			{URL: "https://huggingface.co/istupakov/parakeet-tdt-0.6b-v3-onnx/resolve/main/vocab.txt"},
			{URL: "https://huggingface.co/istupakov/parakeet-tdt-0.6b-v3-onnx/resolve/main/config.json"},
			{URL: "https://huggingface.co/istupakov/parakeet-tdt-0.6b-v3-onnx/resolve/main/nemo128.onnx"},
		},
	},
	{
		ID:          "whisper-large-v3-turbo-q5_0",
		Name:        "Whisper Large v3 Turbo (Q5)",
		Family:      FamilyWhisper,
		Description: "Multilingual, highly accurate. Supports 100+ languages.",
		ApproxBytes: 574_000_000,
		Files: []ModelFile{
			{URL: "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3-turbo-q5_0.bin", RenameTo: "model.bin"},
		},
	},
	{
		ID:          "whisper-large-v3-turbo-q8_0",
		Name:        "Whisper Large v3 Turbo (Q8)",
		Family:      FamilyWhisper,
		Description: "Multilingual, highest accuracy. Higher quality quantization.",
		ApproxBytes: 874_000_000,
		Files: []ModelFile{
			{URL: "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3-turbo-q8_0.bin", RenameTo: "model.bin"},
		},
	},
	{
		ID:          "whisper-medium-q5_0",
		Name:        "Whisper Medium (Q5)",
		Family:      FamilyWhisper,
		Description: "Multilingual, moderate speed and accuracy. Good middle ground.",
		ApproxBytes: 539_000_000,
		Files: []ModelFile{
			{URL: "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium-q5_0.bin", RenameTo: "model.bin"},
		},
	},
	{
		ID:          "whisper-small-q5_1",
		Name:        "Whisper Small (Q5)",
		Family:      FamilyWhisper,
		Description: "Multilingual, fastest Whisper model. Smallest download.",
		ApproxBytes: 190_000_000,
		Files: []ModelFile{
			{URL: "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small-q5_1.bin", RenameTo: "model.bin"},
		},
	},
}

func FindModel(id string) (*ModelDef, bool) {
	for i := range Models {
		if Models[i].ID == id {
			return &Models[i], true
		}
	}
	return nil, false
}

// modelsBaseDir is a variable so tests can redirect model storage.
var modelsBaseDir = func() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "audioshift", "models")
}

// SetModelsDir redirects model storage, returning a restore func.
func SetModelsDir(dir string) func() {
	prev := modelsBaseDir
	modelsBaseDir = func() string { return dir }
	return func() { modelsBaseDir = prev }
}

func ModelDir(id string) string {
	return filepath.Join(modelsBaseDir(), id)
}

func (f ModelFile) destName() string {
	if f.RenameTo != "" {
		return f.RenameTo
	}
	if i := strings.LastIndexByte(f.URL, '/'); i >= 0 {
		return f.URL[i+1:]
	}
	return f.URL
}

// ModelReady reports whether every file of the model exists on disk.
func ModelReady(id string) bool {
	def, ok := FindModel(id)
	if !ok {
		return false
	}
	dir := ModelDir(id)
	for _, f := range def.Files {
		if _, err := os.Stat(filepath.Join(dir, f.destName())); err != nil {
			return false
		}
	}
	return true
}

func AnyModelReady() bool {
	for _, m := range Models {
		if ModelReady(m.ID) {
			return true
		}
	}
	return false
}

// ModelDiskSize sums the sizes of the model's on-disk files.
func ModelDiskSize(id string) int64 {
	entries, err := os.ReadDir(ModelDir(id))
	if err != nil {
		return 0
	}
	var total int64
	for _, e := range entries {
		if info, err := e.Info(); err == nil {
			total += info.Size()
		}
	}
	return total
}

// AllModelStatus returns the catalog with readiness for the UI.
func AllModelStatus() []ModelStatus {
	out := make([]ModelStatus, 0, len(Models))
	for _, m := range Models {
		out = append(out, ModelStatus{
			ID:          m.ID,
			Name:        m.Name,
			Family:      m.Family,
			Description: m.Description,
			SizeLabel:   SizeLabel(m.ApproxBytes),
			Ready:       ModelReady(m.ID),
			DiskSize:    ModelDiskSize(m.ID),
			Path:        ModelDir(m.ID),
		})
	}
	return out
}

// SizeLabel formats approximate bytes as a human-readable label.
func SizeLabel(bytes int64) string {
	if bytes >= 1_000_000_000 {
		return fmt.Sprintf("%.1f GB", float64(bytes)/1_000_000_000)
	}
	return fmt.Sprintf("%d MB", bytes/1_000_000)
}
