// Package boolexp compiles lock expressions, the boolean expressions stored
// as lock properties.
//
// Grammar:
//
//	expr   := term ('|' term)*
//	term   := factor ('&' factor)*
//	factor := '!' factor | '(' expr ')' | atom
//	atom   := '#' <int> | <name> ':' <value>
//
// The empty text and "*UNLOCKED*" compile to the always-true lock, which is
// the empty representation of a lock property.
//
// Only the storage side is implemented here: parsing, unparsing, copying
// and sizing. Evaluating a lock against a candidate object belongs to the
// lock evaluator.
package boolexp
