package recipe

import "slices"

// Requirement is a single dependency declaration in "name/version" form.
type Requirement struct {
	Ref  string
	Test bool // only needed to build and run the tests
}

// Requirements collects the dependencies declared by a recipe.
type Requirements struct {
	reqs []Requirement
}

// Require declares a regular dependency.
func (r *Requirements) Require(ref string) {
	r.reqs = append(r.reqs, Requirement{Ref: ref})
}

// TestRequires declares a dependency used only by the test step.
func (r *Requirements) TestRequires(ref string) {
	r.reqs = append(r.reqs, Requirement{Ref: ref, Test: true})
}

// List returns the collected requirements.
func (r *Requirements) List() []Requirement {
	return slices.Clone(r.reqs)
}
