package catalog_interface

import "github.com/ryogrid/SamehadaDict/schema"

// CheckCompiler turns the SQL text of a check constraint into a predicate
// over the tuples of the space. The catalog uses it without depending on
// the SQL layer.
type CheckCompiler interface {
	CompileCheck(def *schema.SpaceDef, expr string) (schema.CheckPredicate, error)
}
