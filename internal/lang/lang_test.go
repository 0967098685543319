package lang

import (
	"testing"

	"github.com/DeusData/codegraph/internal/syntax"
)

func TestForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		lang Language
	}{
		{".py", Python},
		{".pyi", Python},
	}
	for _, tt := range tests {
		spec := ForExtension(tt.ext)
		if spec == nil {
			t.Errorf("ForExtension(%q) = nil, want %s", tt.ext, tt.lang)
			continue
		}
		if spec.Language != tt.lang {
			t.Errorf("ForExtension(%q).Language = %s, want %s", tt.ext, spec.Language, tt.lang)
		}
	}
}

func TestForLanguage(t *testing.T) {
	if spec := ForLanguage(Python); spec == nil {
		t.Error("ForLanguage(python) = nil")
	}
	if spec := ForLanguage(Language("cobol")); spec != nil {
		t.Errorf("ForLanguage(cobol) = %v, want nil", spec)
	}
}

func TestUnknownExtension(t *testing.T) {
	if spec := ForExtension(".go"); spec != nil {
		t.Errorf("ForExtension(.go) should be nil, got %v", spec)
	}
	if _, ok := LanguageForExtension(".xyz"); ok {
		t.Error("LanguageForExtension(.xyz) should not resolve")
	}
}

func TestPythonSpec(t *testing.T) {
	spec := ForLanguage(Python)
	if spec == nil {
		t.Fatal("Python spec not registered")
	}
	if len(spec.FileExtensions) != 2 || spec.FileExtensions[0] != ".py" {
		t.Errorf("Python FileExtensions: got %v, want [.py .pyi]", spec.FileExtensions)
	}
}

func TestPythonKinds(t *testing.T) {
	spec := ForLanguage(Python)
	tests := []struct {
		nodeType string
		want     syntax.Kind
	}{
		{"module", syntax.KindModule},
		{"import_statement", syntax.KindImport},
		{"import_from_statement", syntax.KindImport},
		{"future_import_statement", syntax.KindImport},
		{"class_definition", syntax.KindClass},
		{"function_definition", syntax.KindFunction},
		{"decorated_definition", syntax.KindDecorated},
		{"typed_default_parameter", syntax.KindParameter},
		{"dictionary_splat_pattern", syntax.KindSplat},
		{"assignment", syntax.KindAssignment},
		{"augmented_assignment", syntax.KindOther},
		{"ERROR", syntax.KindError},
		{"call", syntax.KindOther},
	}
	for _, tt := range tests {
		if got := spec.KindOf(tt.nodeType); got != tt.want {
			t.Errorf("KindOf(%q) = %s, want %s", tt.nodeType, got, tt.want)
		}
	}
}
