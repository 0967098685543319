package lang

import "github.com/DeusData/codegraph/internal/syntax"

// Language represents a supported programming language.
type Language string

const (
	Python Language = "python"
)

// LanguageSpec defines the tree-sitter node types for a language and how they
// map onto syntax kinds.
type LanguageSpec struct {
	Language          Language
	FileExtensions    []string
	ModuleNodeTypes   []string
	FunctionNodeTypes []string
	ClassNodeTypes    []string
	ImportNodeTypes   []string
	ImportFromTypes   []string

	// DecoratedNodeTypes wrap a definition together with its decorators.
	DecoratedNodeTypes []string
	// BlockNodeTypes are statement blocks (class and function bodies).
	BlockNodeTypes      []string
	IdentifierNodeTypes []string
	// ParameterListTypes is the node holding a function's parameters.
	ParameterListTypes []string
	// ParameterNodeTypes wrap a parameter name with a type or default value.
	ParameterNodeTypes []string
	// SplatNodeTypes are *args / **kwargs patterns.
	SplatNodeTypes []string
	// AssignmentNodeTypes lists plain assignment node kinds (not augmented).
	AssignmentNodeTypes      []string
	ExpressionStatementTypes []string
	ErrorNodeTypes           []string

	kinds map[string]syntax.Kind
}

// KindOf maps a grammar node type to its syntax kind.
func (s *LanguageSpec) KindOf(nodeType string) syntax.Kind {
	if k, ok := s.kinds[nodeType]; ok {
		return k
	}
	return syntax.KindOther
}

func (s *LanguageSpec) buildKinds() {
	s.kinds = map[string]syntax.Kind{}
	add := func(k syntax.Kind, types ...[]string) {
		for _, list := range types {
			for _, t := range list {
				s.kinds[t] = k
			}
		}
	}
	add(syntax.KindModule, s.ModuleNodeTypes)
	add(syntax.KindImport, s.ImportNodeTypes, s.ImportFromTypes)
	add(syntax.KindClass, s.ClassNodeTypes)
	add(syntax.KindFunction, s.FunctionNodeTypes)
	add(syntax.KindDecorated, s.DecoratedNodeTypes)
	add(syntax.KindBlock, s.BlockNodeTypes)
	add(syntax.KindIdentifier, s.IdentifierNodeTypes)
	add(syntax.KindParameters, s.ParameterListTypes)
	add(syntax.KindParameter, s.ParameterNodeTypes)
	add(syntax.KindSplat, s.SplatNodeTypes)
	add(syntax.KindAssignment, s.AssignmentNodeTypes)
	add(syntax.KindExpressionStatement, s.ExpressionStatementTypes)
	add(syntax.KindError, s.ErrorNodeTypes)
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	spec.buildKinds()
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".py").
func ForExtension(ext string) *LanguageSpec {
	return registry[ext]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == lang {
			return spec
		}
	}
	return nil
}

// LanguageForExtension returns the Language for a file extension.
func LanguageForExtension(ext string) (Language, bool) {
	spec := ForExtension(ext)
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}
