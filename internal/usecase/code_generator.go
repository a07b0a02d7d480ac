package usecase

import "tnt-services-site/internal/domain/model"

// CodeGenerator produces discount codes for successful submissions.
type CodeGenerator interface {
	Generate() string
}

// CodeGeneratorFunc adapts a plain function to CodeGenerator.
type CodeGeneratorFunc func() string

func (f CodeGeneratorFunc) Generate() string { return f() }

// DefaultCodeGenerator issues TNT10-XXXXXX codes.
var DefaultCodeGenerator CodeGenerator = CodeGeneratorFunc(model.GenerateDiscountCode)
