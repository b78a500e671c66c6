// Package declaration models the structured declarations produced by the
// external symbol extractor.
//
// A Declaration is a closed union over nine kinds. Containers (class, mixin,
// extension) own ordered members of the other kinds; callables (constructor,
// method, function) carry parameters and a return type; properties (field,
// getter, setter) carry a value type. Decoding keeps only the fields meaningful
// for the decoded kind and rejects unknown kinds. Declarations are read-only
// once decoded: the registry caches them and the renderer reads them.
package declaration
