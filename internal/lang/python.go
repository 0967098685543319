package lang

func init() {
	Register(&LanguageSpec{
		Language:          Python,
		FileExtensions:    []string{".py", ".pyi"},
		ModuleNodeTypes:   []string{"module"},
		FunctionNodeTypes: []string{"function_definition"},
		ClassNodeTypes:    []string{"class_definition"},
		ImportNodeTypes:   []string{"import_statement"},
		ImportFromTypes:   []string{"import_from_statement", "future_import_statement"},

		DecoratedNodeTypes:       []string{"decorated_definition"},
		BlockNodeTypes:           []string{"block"},
		IdentifierNodeTypes:      []string{"identifier"},
		ParameterListTypes:       []string{"parameters"},
		ParameterNodeTypes:       []string{"typed_parameter", "default_parameter", "typed_default_parameter"},
		SplatNodeTypes:           []string{"list_splat_pattern", "dictionary_splat_pattern"},
		AssignmentNodeTypes:      []string{"assignment"},
		ExpressionStatementTypes: []string{"expression_statement"},
		ErrorNodeTypes:           []string{"ERROR"},
	})
}
